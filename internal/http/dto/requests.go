package dto

type CreateInvoiceRequest struct {
	ReceiveToken   string  `json:"receiveToken" validate:"required"`
	ReceiveNetwork string  `json:"receiveNetwork" validate:"required"`
	Amount         string  `json:"amount" validate:"required"`
	WalletAddress  string  `json:"walletAddress" validate:"required"`
	Description    *string `json:"description,omitempty" validate:"omitempty,max=500"`
	BuyerName      *string `json:"buyerName,omitempty" validate:"omitempty,max=200"`
	BuyerEmail     *string `json:"buyerEmail,omitempty" validate:"omitempty,email"`
	BuyerAddress   *string `json:"buyerAddress,omitempty" validate:"omitempty,max=500"`
}

type QuoteRequest struct {
	PayToken      string `json:"payToken" validate:"required"`
	PayNetwork    string `json:"payNetwork" validate:"required"`
	RefundAddress string `json:"refundAddress"`
}
