// Package oneclick is a client for the 1Click swap intents API.
package oneclick

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Quote request enums
const (
	SwapTypeExactOutput = "EXACT_OUTPUT"

	DepositTypeOriginChain = "ORIGIN_CHAIN"
	RefundTypeOriginChain  = "ORIGIN_CHAIN"

	RecipientTypeDestinationChain = "DESTINATION_CHAIN"
)

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        *zap.Logger
}

func NewClient(baseURL, token string, timeout time.Duration, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

type QuoteRequest struct {
	Dry               bool      `json:"dry"`
	SwapType          string    `json:"swapType"`
	SlippageTolerance int       `json:"slippageTolerance"`
	OriginAsset       string    `json:"originAsset"`
	DepositType       string    `json:"depositType"`
	DestinationAsset  string    `json:"destinationAsset"`
	Amount            string    `json:"amount"`
	RefundTo          string    `json:"refundTo"`
	RefundType        string    `json:"refundType"`
	Recipient         string    `json:"recipient"`
	RecipientType     string    `json:"recipientType"`
	Deadline          time.Time `json:"deadline"`
	Referral          string    `json:"referral,omitempty"`
}

type QuoteDetails struct {
	DepositAddress     string     `json:"depositAddress"`
	DepositMemo        *string    `json:"depositMemo,omitempty"`
	AmountIn           string     `json:"amountIn"`
	AmountInFormatted  string     `json:"amountInFormatted"`
	AmountOut          string     `json:"amountOut"`
	AmountOutFormatted string     `json:"amountOutFormatted"`
	Deadline           *time.Time `json:"deadline,omitempty"`
	TimeEstimate       *int       `json:"timeEstimate,omitempty"`
}

type QuoteResponse struct {
	Timestamp string       `json:"timestamp,omitempty"`
	Signature string       `json:"signature,omitempty"`
	Quote     QuoteDetails `json:"quote"`
}

type StatusResponse struct {
	Status        string         `json:"status"`
	UpdatedAt     *time.Time     `json:"updatedAt,omitempty"`
	QuoteResponse *QuoteResponse `json:"quoteResponse,omitempty"`
}

// AmountInFormatted returns the human-readable input amount the provider
// quoted for this swap, if it reported one.
func (s *StatusResponse) AmountInFormatted() *string {
	if s == nil || s.QuoteResponse == nil || s.QuoteResponse.Quote.AmountInFormatted == "" {
		return nil
	}
	v := s.QuoteResponse.Quote.AmountInFormatted
	return &v
}

// APIError is a non-2xx provider response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("1click returned %d: %s", e.StatusCode, e.Body)
}

func (c *Client) Quote(ctx context.Context, req QuoteRequest) (*QuoteResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v0/quote", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var out QuoteResponse
	if err := c.do(httpReq, &out); err != nil {
		return nil, fmt.Errorf("quote: %w", err)
	}
	if out.Quote.DepositAddress == "" {
		return nil, fmt.Errorf("quote: response has no deposit address")
	}

	c.log.Info("1click quote issued",
		zap.String("origin_asset", req.OriginAsset),
		zap.String("destination_asset", req.DestinationAsset),
		zap.String("amount_in", out.Quote.AmountInFormatted),
	)
	return &out, nil
}

func (c *Client) ExecutionStatus(ctx context.Context, depositAddress string, depositMemo *string) (*StatusResponse, error) {
	q := url.Values{}
	q.Set("depositAddress", depositAddress)
	if depositMemo != nil && *depositMemo != "" {
		q.Set("depositMemo", *depositMemo)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v0/status?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var out StatusResponse
	if err := c.do(httpReq, &out); err != nil {
		return nil, fmt.Errorf("execution status: %w", err)
	}
	return &out, nil
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("1click unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
