package dto

// PlanResponse describes a purchasable subscription tier.
type PlanResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Amount      int64    `json:"amount"`
	Period      string   `json:"period"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
}

// CreateOrderRequest opens a pending payment order.
type CreateOrderRequest struct {
	PlanID string `json:"plan_id"`
}

// OrderResponse is handed to the client for the gateway checkout.
type OrderResponse struct {
	OrderID     string `json:"order_id"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
	KeyID       string `json:"key_id"`
}

// ConfirmPaymentRequest carries the gateway completion callback values.
type ConfirmPaymentRequest struct {
	PaymentID string `json:"payment_id"`
	OrderID   string `json:"order_id"`
	Signature string `json:"signature"`
}
