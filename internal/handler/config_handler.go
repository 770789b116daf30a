package handler

import "net/http"

// PaymentKeyResponse exposes the public gateway key to the checkout widget.
type PaymentKeyResponse struct {
	KeyID string `json:"keyId"`
}

// PaymentKey handles GET /api/config/payment-key requests.
func PaymentKey(keyID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, PaymentKeyResponse{KeyID: keyID})
	}
}
