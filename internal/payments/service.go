package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"resumemind-api/internal/entitlements"
	"resumemind-api/internal/shared/auth"
	"resumemind-api/internal/shared/metrics"
	"resumemind-api/internal/shared/storage/docstore"
	"resumemind-api/internal/shared/telemetry"
	"resumemind-api/internal/users"
)

type PassApplier interface {
	Get(ctx context.Context, key string) (users.User, error)
	ApplyPass(ctx context.Context, key string, plan entitlements.Plan, now time.Time) (users.User, error)
}

type Service struct {
	Store         docstore.Store
	Gateway       Gateway
	Users         PassApplier
	Metrics       *metrics.Prom
	KeyID         string
	KeySecret     string
	WebhookSecret string
	Now           func() time.Time
}

// CreateOrder opens a Razorpay order for a pass.
func (s *Service) CreateOrder(ctx context.Context, p auth.Principal, rawPlan string) (Checkout, error) {
	if p.IsGuest {
		return Checkout{}, auth.ErrLoginRequired
	}
	if s.Gateway == nil || s.KeyID == "" || s.KeySecret == "" {
		return Checkout{}, ErrNotConfigured
	}
	plan, err := entitlements.ParsePlan(rawPlan)
	if err != nil || !entitlements.IsPaid(plan) {
		return Checkout{}, entitlements.ErrUnknownPlan
	}

	id := uuid.NewString()
	amount := Prices[plan]
	gw, err := s.Gateway.CreateOrder(ctx, OrderRequest{
		Amount:   amount,
		Currency: Currency,
		Receipt:  id,
		Notes:    map[string]string{"plan": string(plan), "userId": p.OwnerID},
	})
	if err != nil {
		s.Metrics.IncPayment("gateway_error")
		return Checkout{}, err
	}

	o := Order{
		ID:              id,
		OwnerID:         p.OwnerID,
		OwnerKind:       p.OwnerKind(),
		Plan:            plan,
		Amount:          amount,
		Currency:        Currency,
		RazorpayOrderID: gw.ID,
		Status:          StatusCreated,
	}
	fields, err := docstore.Encode(o)
	if err != nil {
		return Checkout{}, err
	}
	if _, err := s.Store.Create(ctx, Collection, docstore.Record{ID: o.ID, OwnerID: o.OwnerID, OwnerKind: o.OwnerKind, Fields: fields}); err != nil {
		return Checkout{}, err
	}

	s.Metrics.IncPayment("created")
	telemetry.Info("payment.order_created", map[string]any{
		"order_id":          o.ID,
		"razorpay_order_id": gw.ID,
		"plan":              string(plan),
		"user_id":           p.OwnerID,
	})
	return Checkout{
		OrderID:         o.ID,
		RazorpayOrderID: gw.ID,
		Plan:            plan,
		Amount:          amount,
		Currency:        Currency,
		KeyID:           s.KeyID,
	}, nil
}

// Verify checks the checkout callback signature and applies the pass.
func (s *Service) Verify(ctx context.Context, p auth.Principal, razorpayOrderID, paymentID, signature string) (PassState, error) {
	if p.IsGuest {
		return PassState{}, auth.ErrLoginRequired
	}
	if s.KeySecret == "" {
		return PassState{}, ErrNotConfigured
	}
	if !validSignature(s.KeySecret, razorpayOrderID+"|"+paymentID, signature) {
		s.Metrics.IncPayment("invalid_signature")
		return PassState{}, ErrInvalidSignature
	}
	o, err := s.findOrder(ctx, razorpayOrderID)
	if err != nil {
		return PassState{}, err
	}
	if o.OwnerID != p.OwnerID || o.OwnerKind != auth.OwnerUser {
		return PassState{}, auth.ErrForbidden
	}
	return s.settle(ctx, o, paymentID)
}

// VerifyWebhookSignature checks X-Razorpay-Signature against the raw body.
func (s *Service) VerifyWebhookSignature(body []byte, signature string) error {
	if s.WebhookSecret == "" {
		return ErrNotConfigured
	}
	if !validSignature(s.WebhookSecret, string(body), signature) {
		s.Metrics.IncPayment("invalid_signature")
		return ErrInvalidSignature
	}
	return nil
}

// SettleByGatewayOrder marks the order paid on behalf of a webhook.
func (s *Service) SettleByGatewayOrder(ctx context.Context, razorpayOrderID, paymentID string) (PassState, error) {
	o, err := s.findOrder(ctx, razorpayOrderID)
	if err != nil {
		return PassState{}, err
	}
	return s.settle(ctx, o, paymentID)
}

// settle moves the order from created to paid. Only the call that performs
// the transition applies the pass; later calls report the current state.
func (s *Service) settle(ctx context.Context, o Order, paymentID string) (PassState, error) {
	now := s.now().UTC()
	transitioned := false
	rec, err := s.Store.Mutate(ctx, Collection, o.ID, func(rec *docstore.Record, exists bool) error {
		if !exists {
			return ErrOrderNotFound
		}
		switch rec.Fields["status"] {
		case StatusPaid:
			return nil
		case StatusCreated:
		default:
			return ErrOrderState
		}
		rec.Fields["status"] = StatusPaid
		rec.Fields["razorpayPaymentId"] = paymentID
		rec.Fields["paidAt"] = now.Format(time.RFC3339Nano)
		transitioned = true
		return nil
	})
	if err != nil {
		return PassState{}, err
	}
	if err := docstore.DecodeRecord(rec, &o); err != nil {
		return PassState{}, err
	}

	if !transitioned {
		s.Metrics.IncPayment("replay")
		u, err := s.Users.Get(ctx, o.OwnerID)
		if err != nil {
			return PassState{}, err
		}
		return PassState{OrderID: o.ID, Status: o.Status, Plan: u.EffectivePlan(now), PaidUntil: u.PaidUntil, Replayed: true}, nil
	}

	u, err := s.Users.ApplyPass(ctx, o.OwnerID, o.Plan, now)
	if err != nil {
		s.reopen(o.ID)
		return PassState{}, fmt.Errorf("apply pass: %w", err)
	}
	s.Metrics.IncPayment("paid")
	telemetry.Info("payment.paid", map[string]any{
		"order_id":   o.ID,
		"payment_id": paymentID,
		"plan":       string(o.Plan),
		"user_id":    o.OwnerID,
		"paid_until": u.PaidUntil,
	})
	return PassState{OrderID: o.ID, Status: o.Status, Plan: u.EffectivePlan(now), PaidUntil: u.PaidUntil}, nil
}

// reopen hands the order back to created so the payment can be retried.
func (s *Service) reopen(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := s.Store.Mutate(ctx, Collection, id, func(rec *docstore.Record, exists bool) error {
		if !exists {
			return ErrOrderNotFound
		}
		rec.Fields["status"] = StatusCreated
		delete(rec.Fields, "paidAt")
		return nil
	})
	if err != nil {
		telemetry.Error("payment.reopen_failed", map[string]any{"order_id": id, "error": err.Error()})
	}
}

func (s *Service) findOrder(ctx context.Context, razorpayOrderID string) (Order, error) {
	if razorpayOrderID == "" {
		return Order{}, ErrOrderNotFound
	}
	recs, err := s.Store.List(ctx, Collection, docstore.Query{
		Where: map[string]any{"razorpayOrderId": razorpayOrderID},
		Limit: 1,
	})
	if err != nil {
		return Order{}, err
	}
	if len(recs) == 0 {
		return Order{}, ErrOrderNotFound
	}
	var o Order
	if err := docstore.DecodeRecord(recs[0], &o); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Sign returns the hex HMAC-SHA256 of payload.
func Sign(secret, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func validSignature(secret, payload, signature string) bool {
	got, err := hex.DecodeString(signature)
	if err != nil || len(got) == 0 {
		return false
	}
	want, _ := hex.DecodeString(Sign(secret, payload))
	return hmac.Equal(got, want)
}
