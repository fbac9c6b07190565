package payments

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"resumemind-api/internal/entitlements"
	"resumemind-api/internal/httperr"
	"resumemind-api/internal/shared/server/middleware"
	"resumemind-api/internal/shared/server/respond"
	"resumemind-api/internal/shared/telemetry"
)

const maxWebhookBytes = 1 << 20

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches the session-bound payment routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/payments/orders", h.createOrder)
	rg.POST("/payments/verify", h.verify)
}

// RegisterWebhookRoutes attaches the provider callback. It is authenticated
// by its signature, not by a session.
func (h *Handler) RegisterWebhookRoutes(rg gin.IRoutes) {
	rg.POST("/payments/webhook", h.webhook)
}

type orderRequest struct {
	Plan string `json:"plan" binding:"required,oneof=STARTER PRO starter pro"`
}

type verifyRequest struct {
	RazorpayOrderID   string `json:"razorpayOrderId" binding:"required"`
	RazorpayPaymentID string `json:"razorpayPaymentId" binding:"required"`
	RazorpaySignature string `json:"razorpaySignature" binding:"required,hexadecimal"`
}

func (h *Handler) createOrder(c *gin.Context) {
	var req orderRequest
	if !respond.BindJSON(c, &req) {
		return
	}
	out, err := h.Svc.CreateOrder(c.Request.Context(), middleware.PrincipalFromContext(c), req.Plan)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set("orderId", out.OrderID)
	respond.Created(c, out)
}

func (h *Handler) verify(c *gin.Context) {
	var req verifyRequest
	if !respond.BindJSON(c, &req) {
		return
	}
	out, err := h.Svc.Verify(c.Request.Context(), middleware.PrincipalFromContext(c), req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, out)
}

func (h *Handler) webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_body", "failed to read body", nil)
		return
	}
	if err := h.Svc.VerifyWebhookSignature(body, c.GetHeader("X-Razorpay-Signature")); err != nil {
		writeError(c, err)
		return
	}

	event := gjson.GetBytes(body, "event").String()
	var orderID, paymentID string
	switch event {
	case "payment.captured":
		orderID = gjson.GetBytes(body, "payload.payment.entity.order_id").String()
		paymentID = gjson.GetBytes(body, "payload.payment.entity.id").String()
	case "order.paid":
		orderID = gjson.GetBytes(body, "payload.order.entity.id").String()
		paymentID = gjson.GetBytes(body, "payload.payment.entity.id").String()
	default:
		respond.OK(c, gin.H{"status": "ignored", "event": event})
		return
	}

	state, err := h.Svc.SettleByGatewayOrder(c.Request.Context(), orderID, paymentID)
	if errors.Is(err, ErrOrderNotFound) {
		telemetry.Warn("payment.webhook_unknown_order", map[string]any{"event": event, "razorpay_order_id": orderID})
		respond.OK(c, gin.H{"status": "ignored", "event": event})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"status": state.Status, "event": event, "replayed": state.Replayed})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidSignature):
		respond.Error(c, http.StatusBadRequest, "invalid_signature", "payment signature does not match", nil)
	case errors.Is(err, ErrOrderNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "order not found", nil)
	case errors.Is(err, ErrOrderState):
		respond.Error(c, http.StatusConflict, "invalid_state", err.Error(), nil)
	case errors.Is(err, entitlements.ErrUnknownPlan):
		respond.Error(c, http.StatusBadRequest, "validation_error", "plan must be STARTER or PRO", nil)
	case errors.Is(err, ErrNotConfigured):
		respond.Error(c, http.StatusServiceUnavailable, "payments_unavailable", "payments are not configured", nil)
	case errors.Is(err, ErrGateway):
		respond.Error(c, http.StatusBadGateway, "upstream_error", "payment provider request failed", nil)
	default:
		httperr.Write(c, err, "order")
	}
}
