package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/meditabi/meditabi_api/internal/repository"
	"github.com/meditabi/meditabi_api/internal/service"
	"github.com/meditabi/meditabi_api/internal/utils"
)

// AdminOrderHandler handles back-office order endpoints.
type AdminOrderHandler struct {
	orderSvc  *service.OrderService
	orderRepo *repository.OrderRepository
}

// NewAdminOrderHandler constructs an AdminOrderHandler.
func NewAdminOrderHandler(orderSvc *service.OrderService, orderRepo *repository.OrderRepository) *AdminOrderHandler {
	return &AdminOrderHandler{orderSvc: orderSvc, orderRepo: orderRepo}
}

// ListOrders handles GET /v1/admin/orders
func (h *AdminOrderHandler) ListOrders(c *gin.Context) {
	var filter repository.AdminOrderFilter

	if status := c.Query("status"); status != "" {
		filter.Status = &status
	}
	if guideID := c.Query("guideId"); guideID != "" {
		if id, err := strconv.Atoi(guideID); err == nil {
			filter.GuideID = &id
		}
	}
	if ref := c.Query("orderRef"); ref != "" {
		filter.OrderRef = &ref
	}
	if startDate := c.Query("startDate"); startDate != "" {
		filter.StartDate = &startDate
	}
	if endDate := c.Query("endDate"); endDate != "" {
		filter.EndDate = &endDate
	}
	if page := c.Query("page"); page != "" {
		if p, err := strconv.Atoi(page); err == nil {
			filter.Page = p
		}
	}
	if limit := c.Query("limit"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil {
			filter.Limit = l
		}
	}

	result, err := h.orderRepo.ListAdmin(c.Request.Context(), &filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to list orders")
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to retrieve orders")
		return
	}

	utils.SuccessWithPagination(c, 200, "Orders retrieved", result.Orders,
		result.Page, result.Limit, result.TotalItems)
}

// GetOrder handles GET /v1/admin/orders/:id
func (h *AdminOrderHandler) GetOrder(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 400, "INVALID_ID", "Order id must be numeric")
		return
	}

	order, err := h.orderRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		log.Error().Err(err).Int("order_id", id).Msg("failed to get order")
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to retrieve order")
		return
	}
	if order == nil {
		utils.Error(c, 404, "ORDER_NOT_FOUND", "Order not found")
		return
	}

	utils.Success(c, 200, "Order retrieved", order)
}

// ApplyAction handles POST /v1/admin/orders/:id/action
func (h *AdminOrderHandler) ApplyAction(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 400, "INVALID_ID", "Order id must be numeric")
		return
	}

	var req service.OrderActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "VALIDATION_ERROR", "action must be one of confirm, complete, cancel")
		return
	}

	order, err := h.orderSvc.ApplyAction(c.Request.Context(), id, &req)
	if err != nil {
		var invalidTransition *service.InvalidTransitionError
		switch {
		case errors.Is(err, utils.ErrOrderNotFound):
			utils.Error(c, 404, "ORDER_NOT_FOUND", "Order not found")
		case errors.As(err, &invalidTransition):
			// Name both sides so the operator sees why it was rejected.
			utils.Error(c, 409, "INVALID_TRANSITION", invalidTransition.Error())
		case errors.Is(err, utils.ErrTransitionConflict):
			utils.Error(c, 409, "TRANSITION_CONFLICT", "Order was modified concurrently, reload and retry")
		case errors.Is(err, utils.ErrCancelReasonRequired):
			utils.Error(c, 400, "CANCEL_REASON_REQUIRED", "A cancellation reason is required")
		case errors.Is(err, utils.ErrCancelReasonTooLong):
			utils.Error(c, 400, "CANCEL_REASON_TOO_LONG", "Cancellation reason exceeds the allowed length")
		case errors.Is(err, utils.ErrOverrideNoteRequired):
			utils.Error(c, 400, "OVERRIDE_NOTE_REQUIRED", "adminNotes is required when overriding the commission amount")
		default:
			log.Error().Err(err).Int("order_id", id).Str("action", string(req.Action)).Msg("order action failed")
			utils.Error(c, 500, "INTERNAL_ERROR", "Failed to apply order action")
		}
		return
	}

	utils.Success(c, 200, "Order updated", order)
}
