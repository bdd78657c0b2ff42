package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/meditabi/meditabi_api/internal/models"
	"github.com/meditabi/meditabi_api/internal/utils"
)

// orderStore is the slice of the order repository the state machine needs.
// Each transition method performs a single conditional update and reports
// whether a row changed; the store serializes concurrent admins.
type orderStore interface {
	GetByID(ctx context.Context, id int) (*models.Order, error)
	ConfirmOrder(ctx context.Context, id int, totalAmount, commissionAmount int64, commissionRate *float64, adminNotes *string) (bool, error)
	CompleteOrder(ctx context.Context, id int, adminNotes *string) (bool, error)
	CancelOrder(ctx context.Context, id int, reason string, adminNotes *string) (bool, error)
}

// commissionCalc is the slice of the commission engine the state machine needs.
type commissionCalc interface {
	CommissionFor(ctx context.Context, amount int64) (int64, float64, error)
}

// statusNotifier dispatches a status notification and never reports back.
type statusNotifier interface {
	DispatchOrderStatusEmail(order *models.Order)
}

// InvalidTransitionError reports a rejected order state transition with the
// current state and the requested action.
type InvalidTransitionError struct {
	Current   models.OrderStatus
	Requested models.OrderAction
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s an order in status %s", e.Requested, e.Current)
}

// OrderActionRequest is the closed set of admin order actions. Per-variant
// field requirements are enforced in ApplyAction before any write happens.
type OrderActionRequest struct {
	Action           models.OrderAction `json:"action" binding:"required,oneof=confirm complete cancel"`
	TotalAmount      *int64             `json:"totalAmount,omitempty"`
	CommissionAmount *int64             `json:"commissionAmount,omitempty"`
	CancelReason     *string            `json:"cancelReason,omitempty"`
	AdminNotes       *string            `json:"adminNotes,omitempty"`
}

// OrderService runs the admin order state machine. Commission is written
// exactly once, at confirmation; notification email is a detached side
// effect that never rolls back a transition.
type OrderService struct {
	orders     orderStore
	commission commissionCalc
	notifier   statusNotifier
}

// NewOrderService creates a new OrderService.
func NewOrderService(orders orderStore, commission commissionCalc, notifier statusNotifier) *OrderService {
	return &OrderService{orders: orders, commission: commission, notifier: notifier}
}

// ApplyAction validates and applies one admin action to an order, returning
// the refreshed order. Invalid transitions are rejected, never coerced.
func (s *OrderService) ApplyAction(ctx context.Context, orderID int, req *OrderActionRequest) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, utils.ErrOrderNotFound
	}

	if _, ok := models.NextStatus(order.Status, req.Action); !ok {
		return nil, &InvalidTransitionError{Current: order.Status, Requested: req.Action}
	}

	var applied bool
	switch req.Action {
	case models.ActionConfirm:
		applied, err = s.confirm(ctx, order, req)
	case models.ActionComplete:
		applied, err = s.orders.CompleteOrder(ctx, orderID, req.AdminNotes)
	case models.ActionCancel:
		if err := validateCancelReason(req.CancelReason); err != nil {
			return nil, err
		}
		applied, err = s.orders.CancelOrder(ctx, orderID, strings.TrimSpace(*req.CancelReason), req.AdminNotes)
	}
	if err != nil {
		return nil, err
	}
	if !applied {
		// Another admin raced us between the read and the conditional update.
		return nil, utils.ErrTransitionConflict
	}

	updated, err := s.orders.GetByID(ctx, orderID)
	if err != nil || updated == nil {
		// The transition itself succeeded; return what we know.
		log.Warn().Err(err).Int("order_id", orderID).Msg("failed to reload order after transition")
		return order, nil
	}

	if s.notifier != nil {
		s.notifier.DispatchOrderStatusEmail(updated)
	}
	return updated, nil
}

// confirm computes or accepts the commission and applies the transition. A
// direct commissionAmount override bypasses the tier table and therefore
// requires an audit note.
func (s *OrderService) confirm(ctx context.Context, order *models.Order, req *OrderActionRequest) (bool, error) {
	total := order.TotalAmount
	if req.TotalAmount != nil {
		total = *req.TotalAmount
	}

	var commissionAmount int64
	var commissionRate *float64

	if req.CommissionAmount != nil {
		if req.AdminNotes == nil || strings.TrimSpace(*req.AdminNotes) == "" {
			return false, utils.ErrOverrideNoteRequired
		}
		commissionAmount = *req.CommissionAmount
		log.Info().
			Int("order_id", order.ID).
			Int64("commission", commissionAmount).
			Msg("commission override applied by admin")
	} else {
		amount, rate, err := s.commission.CommissionFor(ctx, total)
		if err != nil {
			return false, err
		}
		commissionAmount = amount
		commissionRate = &rate
	}

	return s.orders.ConfirmOrder(ctx, order.ID, total, commissionAmount, commissionRate, req.AdminNotes)
}

func validateCancelReason(reason *string) error {
	if reason == nil || strings.TrimSpace(*reason) == "" {
		return utils.ErrCancelReasonRequired
	}
	if len(strings.TrimSpace(*reason)) > models.MaxCancelReasonLen {
		return utils.ErrCancelReasonTooLong
	}
	return nil
}
