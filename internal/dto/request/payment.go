package request

type VerifyPaymentRequest struct {
	ProviderPaymentID string `json:"provider_payment_id" validate:"required"`
	ProviderOrderID   string `json:"provider_order_id" validate:"required"`
	Signature         string `json:"signature" validate:"required"`
	BookingID         string `json:"booking_id" validate:"required"`
}

type SkipPaymentRequest struct {
	BookingID string `json:"booking_id" validate:"required,uuid"`
}
