package dto

import "time"

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// ValidationErrorResponse carries field-keyed messages.
type ValidationErrorResponse struct {
	Error     map[string][]string `json:"error"`
	RequestID string              `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

type InvoiceDetails struct {
	ID             string    `json:"id"`
	Amount         string    `json:"amount"`
	ReceiveToken   string    `json:"receiveToken"`
	ReceiveNetwork string    `json:"receiveNetwork"`
	WalletAddress  string    `json:"walletAddress"`
	Description    *string   `json:"description"`
	BuyerName      *string   `json:"buyerName"`
	BuyerEmail     *string   `json:"buyerEmail"`
	BuyerAddress   *string   `json:"buyerAddress"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type PaymentInstructions struct {
	PayToken       *string    `json:"payToken"`
	PayNetwork     *string    `json:"payNetwork"`
	DepositAddress *string    `json:"depositAddress"`
	DepositMemo    *string    `json:"depositMemo"`
	AmountIn       *string    `json:"amountIn"`
	ExpiresAt      *time.Time `json:"expiresAt"`
	PaidAt         *time.Time `json:"paidAt"`
}

type Timeline struct {
	CurrentStatus      string     `json:"currentStatus"`
	IsTerminal         bool       `json:"isTerminal"`
	CreatedAt          time.Time  `json:"createdAt"`
	QuotedAt           *time.Time `json:"quotedAt"`
	ExpiresAt          *time.Time `json:"expiresAt"`
	PaidAt             *time.Time `json:"paidAt"`
	CompletedAt        *time.Time `json:"completedAt"`
	FailedAt           *time.Time `json:"failedAt"`
	RefundedAt         *time.Time `json:"refundedAt"`
	ExpiredAt          *time.Time `json:"expiredAt"`
	LastStatusChangeAt time.Time  `json:"lastStatusChangeAt"`
}

// InvoiceSnapshot is the normalized read model of one invoice.
type InvoiceSnapshot struct {
	ID                  string              `json:"id"`
	Status              string              `json:"status"`
	Invoice             InvoiceDetails      `json:"invoice"`
	PaymentInstructions PaymentInstructions `json:"paymentInstructions"`
	Timeline            Timeline            `json:"timeline"`
}

type InvoiceStatusResponse struct {
	Status          string     `json:"status"`
	DepositAddress  *string    `json:"depositAddress"`
	DepositMemo     *string    `json:"depositMemo"`
	PaidAt          *time.Time `json:"paidAt"`
	ExpiresAt       *time.Time `json:"expiresAt"`
	PayToken        *string    `json:"payToken"`
	AmountIn        *string    `json:"amountIn"`
	SDKStatus       *string    `json:"sdkStatus"`
	DepositDetected bool       `json:"depositDetected"`
}

type QuoteResponse struct {
	DepositAddress string    `json:"depositAddress"`
	DepositMemo    *string   `json:"depositMemo,omitempty"`
	AmountIn       string    `json:"amountIn"`
	AmountOut      string    `json:"amountOut"`
	TimeEstimate   *int      `json:"timeEstimate,omitempty"`
	ExpiresAt      time.Time `json:"expiresAt"`
}

type InvoiceListResponse struct {
	Items  []InvoiceDetailsWithStatus `json:"items"`
	Limit  int                        `json:"limit"`
	Offset int                        `json:"offset"`
}

type InvoiceDetailsWithStatus struct {
	InvoiceDetails
	Status string `json:"status"`
}

type AuditEntryResponse struct {
	ID        string         `json:"id"`
	ActorType string         `json:"actorType"`
	Action    string         `json:"action"`
	Meta      map[string]any `json:"meta,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}
