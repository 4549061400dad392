package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/weave-cash/backend/internal/http/dto"
)

type QuoteInput struct {
	PayToken      string `json:"payToken"`
	PayNetwork    string `json:"payNetwork"`
	RefundAddress string `json:"refundAddress"`
}

// API is the slice of the invoice API a tracker needs.
type API interface {
	GetInvoice(ctx context.Context, id uuid.UUID) (*dto.InvoiceSnapshot, error)
	RequestQuote(ctx context.Context, id uuid.UUID, in QuoteInput) (*dto.QuoteResponse, error)
}

// APIError is a non-2xx answer from the invoice API. Fields is set for
// validation failures.
type APIError struct {
	StatusCode int
	Message    string
	Fields     map[string][]string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("invoice api: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("invoice api: status %d", e.StatusCode)
}

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) GetInvoice(ctx context.Context, id uuid.UUID) (*dto.InvoiceSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/invoices/"+id.String(), nil)
	if err != nil {
		return nil, err
	}
	var out dto.InvoiceSnapshot
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) RequestQuote(ctx context.Context, id uuid.UUID, in QuoteInput) (*dto.QuoteResponse, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/invoices/"+id.String()+"/quote", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var out dto.QuoteResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("invoice api unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 16<<10))
		return decodeAPIError(resp.StatusCode, raw)
	}

	env := struct {
		OK   bool            `json:"ok"`
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if !env.OK || len(env.Data) == 0 {
		return errors.New("invoice api: empty response")
	}
	return json.Unmarshal(env.Data, out)
}

// decodeAPIError accepts both {"error":"msg"} and {"error":{field:[msg]}}.
func decodeAPIError(status int, raw []byte) error {
	apiErr := &APIError{StatusCode: status}
	var body struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || len(body.Error) == 0 {
		return apiErr
	}
	var msg string
	if err := json.Unmarshal(body.Error, &msg); err == nil {
		apiErr.Message = msg
		return apiErr
	}
	var fields map[string][]string
	if err := json.Unmarshal(body.Error, &fields); err == nil {
		apiErr.Fields = fields
	}
	return apiErr
}

// quoteFailure turns a quote error into the event the reducer records.
func quoteFailure(err error) QuoteFailed {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return QuoteFailed{Message: apiErr.Message, Fields: apiErr.Fields}
	}
	return QuoteFailed{}
}
