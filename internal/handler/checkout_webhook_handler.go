package handler

import (
	"encoding/json"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/meditabi/meditabi_api/internal/models"
	"github.com/meditabi/meditabi_api/internal/repository"
	"github.com/meditabi/meditabi_api/internal/service"
	"github.com/meditabi/meditabi_api/internal/utils"
)

// signatureHeader carries the HMAC-SHA256 hex digest of the raw body.
const signatureHeader = "X-Checkout-Signature"

// CheckoutPayload is the event delivered by the payment collaborator when a
// customer finishes checkout.
type CheckoutPayload struct {
	EventType     string `json:"eventType"`
	OrderRef      string `json:"orderRef"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	GuideSlug     string `json:"guideSlug,omitempty"`
	CustomerEmail string `json:"customerEmail"`
	CustomerName  string `json:"customerName,omitempty"`
	Locale        string `json:"locale,omitempty"`
}

// CheckoutWebhookHandler receives checkout-completed events and creates the
// pending order carrying partner attribution.
type CheckoutWebhookHandler struct {
	orderRepo     *repository.OrderRepository
	guideSvc      *service.GuideService
	webhookSecret string
}

// NewCheckoutWebhookHandler constructs a CheckoutWebhookHandler.
func NewCheckoutWebhookHandler(orderRepo *repository.OrderRepository, guideSvc *service.GuideService, webhookSecret string) *CheckoutWebhookHandler {
	return &CheckoutWebhookHandler{orderRepo: orderRepo, guideSvc: guideSvc, webhookSecret: webhookSecret}
}

// HandleCheckoutCompleted handles POST /webhook/checkout
func (h *CheckoutWebhookHandler) HandleCheckoutCompleted(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(400, gin.H{"error": "Invalid body"})
		return
	}

	signature := c.GetHeader(signatureHeader)
	if signature == "" || !utils.VerifySignature(body, signature, h.webhookSecret) {
		log.Warn().Str("ip", c.ClientIP()).Msg("checkout webhook signature rejected")
		c.JSON(401, gin.H{"error": "Invalid signature"})
		return
	}

	var payload CheckoutPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(400, gin.H{"error": "Invalid JSON"})
		return
	}
	if payload.EventType != "checkout.completed" {
		// Not ours; acknowledge so the provider stops redelivering.
		c.JSON(200, gin.H{"received": true})
		return
	}
	if payload.OrderRef == "" || payload.CustomerEmail == "" || payload.Amount <= 0 {
		c.JSON(400, gin.H{"error": "orderRef, customerEmail, and a positive amount are required"})
		return
	}

	ctx := c.Request.Context()

	// Idempotent on redelivery.
	existing, err := h.orderRepo.GetByOrderRef(ctx, payload.OrderRef)
	if err != nil {
		log.Error().Err(err).Str("order_ref", payload.OrderRef).Msg("order lookup failed")
		c.JSON(500, gin.H{"error": "Processing failed"})
		return
	}
	if existing != nil {
		c.JSON(200, gin.H{"received": true})
		return
	}

	order := &models.Order{
		OrderRef:      payload.OrderRef,
		CustomerEmail: payload.CustomerEmail,
		TotalAmount:   payload.Amount,
		Currency:      payload.Currency,
		Status:        models.OrderPending,
		Locale:        models.DefaultLocale,
	}
	if payload.Currency == "" {
		order.Currency = "JPY"
	}
	if payload.CustomerName != "" {
		order.CustomerName = &payload.CustomerName
	}
	if models.ValidLocale(payload.Locale) {
		order.Locale = payload.Locale
	}

	// Attribution: the slug captured at resolution time travels through
	// checkout metadata. An unknown slug just means no attribution.
	if payload.GuideSlug != "" {
		g, err := h.guideSvc.GetBySlug(ctx, payload.GuideSlug)
		if err != nil {
			log.Warn().Err(err).Str("slug", payload.GuideSlug).Msg("attribution lookup failed, order saved unattributed")
		} else if g != nil {
			order.GuideID = &g.ID
		}
	}

	if err := h.orderRepo.Create(ctx, order); err != nil {
		if err == utils.ErrDuplicateOrderRef {
			// Raced a redelivery; already recorded.
			c.JSON(200, gin.H{"received": true})
			return
		}
		log.Error().Err(err).Str("order_ref", payload.OrderRef).Msg("failed to create order from checkout webhook")
		c.JSON(500, gin.H{"error": "Processing failed"})
		return
	}

	log.Info().Str("order_ref", order.OrderRef).Int64("amount", order.TotalAmount).Msg("order created from checkout")
	c.JSON(200, gin.H{"received": true})
}
