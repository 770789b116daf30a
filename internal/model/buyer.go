package model

// Buyer is the authenticated identity placing or settling an order.
type Buyer struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}
