package checkoutstripe

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	FrontendURL      string
	Currency         string
	WebhookSecret    string
	WebhookTolerance time.Duration
}

type LineItemRequest struct {
	ProductID string              `json:"productId"`
	Name      string              `json:"name"`
	Price     decimal.NullDecimal `json:"price"`
	Quantity  int64               `json:"quantity"`
	Image     string              `json:"image,omitempty"`
}

type CreateCheckoutRequest struct {
	Items         []LineItemRequest `json:"items"`
	CustomerEmail string            `json:"customerEmail,omitempty"`
}

type CreateCheckoutResponse struct {
	URL       string `json:"url"`
	SessionID string `json:"sessionId"`
}

type sessionStatusRequest struct {
	SessionID string `form:"session_id"`
}

type SessionStatus struct {
	Status        string   `json:"status"`
	PaymentStatus string   `json:"paymentStatus"`
	CustomerEmail *string  `json:"customerEmail"`
	AmountTotal   *float64 `json:"amountTotal"`
	Currency      string   `json:"currency"`
}

type Acknowledgement struct {
	Received bool `json:"received"`
}

// ProcessedEvent marks a provider event as handled, keyed by the provider's event id.
type ProcessedEvent struct {
	EventID    string
	Kind       string
	ReceivedAt time.Time
}

func isAbsoluteURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
