package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weave-cash/backend/internal/http/dto"
	"github.com/weave-cash/backend/internal/models"
)

func TestHTTPClientGetInvoice(t *testing.T) {
	id := uuid.MustParse(testInvoiceID)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/invoices/"+testInvoiceID, r.URL.Path)
		_ = json.NewEncoder(w).Encode(dto.SuccessResponse{OK: true, Data: snapshot(models.InvoiceStatusProcessing, strPtr("dep"), nil, nil)})
	}))
	defer srv.Close()

	snap, err := NewHTTPClient(srv.URL+"/", time.Second).GetInvoice(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, string(models.InvoiceStatusProcessing), snap.Status)
	assert.Equal(t, "dep", *snap.PaymentInstructions.DepositAddress)
}

func TestHTTPClientRequestQuote(t *testing.T) {
	id := uuid.MustParse(testInvoiceID)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var in QuoteInput
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "USDC", in.PayToken)
		_ = json.NewEncoder(w).Encode(dto.SuccessResponse{OK: true, Data: dto.QuoteResponse{DepositAddress: "0xdep", AmountIn: "5"}})
	}))
	defer srv.Close()

	q, err := NewHTTPClient(srv.URL, time.Second).RequestQuote(context.Background(), id, QuoteInput{PayToken: "USDC", PayNetwork: "Ethereum", RefundAddress: "0xr"})
	require.NoError(t, err)
	assert.Equal(t, "0xdep", q.DepositAddress)
}

func TestHTTPClientErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantMsg    string
		wantFields bool
	}{
		{"conflict", http.StatusConflict, `{"error":"Invoice is not in PENDING status"}`, "Invoice is not in PENDING status", false},
		{"validation", http.StatusBadRequest, `{"error":{"payToken":["DOGE is not a supported token"]}}`, "", true},
		{"unparseable", http.StatusBadGateway, `oops`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewHTTPClient(srv.URL, time.Second).RequestQuote(context.Background(), uuid.New(), QuoteInput{})
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
			assert.Equal(t, tt.wantFields, apiErr.Fields != nil)

			ev := quoteFailure(err)
			assert.Equal(t, tt.wantMsg, ev.Message)
		})
	}
}
