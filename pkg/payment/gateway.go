// Package payment prepares payment requests for the external gateway. The
// Sandbox gateway only builds and signs requests locally; it never moves
// money.
package payment

import (
	"context"
	"errors"

	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/models"
)

var (
	ErrTimeout       = errors.New("payment gateway timed out")
	ErrInvalidAmount = errors.New("order total must be positive")
)

// Draft is the order as the gateway sees it.
type Draft struct {
	OrderID int64              `json:"orderId"`
	Total   int                `json:"total"`
	Items   []models.OrderItem `json:"items"`
}

type RedirectData struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers"`
	Body    map[string]string `json:"body"`
}

type Result struct {
	Success       bool          `json:"success"`
	TransactionID string        `json:"transactionId,omitempty"`
	PaymentURL    string        `json:"paymentUrl,omitempty"`
	Payload       string        `json:"payload,omitempty"`
	Checksum      string        `json:"checksum,omitempty"`
	RedirectData  *RedirectData `json:"redirectData,omitempty"`
	Error         string        `json:"error,omitempty"`
}

// Gateway starts a payment for a draft order. A declined request comes back
// as a Result with Success false; err is reserved for failures to reach a
// decision.
type Gateway interface {
	Initiate(ctx context.Context, draft Draft, customer models.Customer) (Result, error)
}
