package payments

import (
	"errors"
	"time"

	"resumemind-api/internal/entitlements"
)

// Collection holds one record per checkout attempt.
const Collection = "orders"

// Currency is the only currency passes are sold in.
const Currency = "INR"

const (
	StatusCreated = "created"
	StatusPaid    = "paid"
)

// Prices in paise.
var Prices = map[entitlements.Plan]int64{
	entitlements.PlanStarter: 19900,
	entitlements.PlanPro:     49900,
}

var (
	ErrNotConfigured    = errors.New("payments are not configured")
	ErrInvalidSignature = errors.New("invalid payment signature")
	ErrOrderNotFound    = errors.New("order not found")
	ErrOrderState       = errors.New("order cannot be paid in its current state")
)

// Order is a stored checkout.
type Order struct {
	ID                string            `json:"id"`
	OwnerID           string            `json:"ownerId"`
	OwnerKind         string            `json:"ownerKind"`
	Plan              entitlements.Plan `json:"plan"`
	Amount            int64             `json:"amount"`
	Currency          string            `json:"currency"`
	RazorpayOrderID   string            `json:"razorpayOrderId"`
	RazorpayPaymentID string            `json:"razorpayPaymentId,omitempty"`
	Status            string            `json:"status"`
	PaidAt            *time.Time        `json:"paidAt,omitempty"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// Checkout is what the client needs to open the Razorpay widget.
type Checkout struct {
	OrderID         string            `json:"orderId"`
	RazorpayOrderID string            `json:"razorpayOrderId"`
	Plan            entitlements.Plan `json:"plan"`
	Amount          int64             `json:"amount"`
	Currency        string            `json:"currency"`
	KeyID           string            `json:"keyId"`
}

// PassState is the caller's plan after a payment.
type PassState struct {
	OrderID   string            `json:"orderId"`
	Status    string            `json:"status"`
	Plan      entitlements.Plan `json:"plan"`
	PaidUntil *time.Time        `json:"paidUntil,omitempty"`
	Replayed  bool              `json:"replayed,omitempty"`
}
