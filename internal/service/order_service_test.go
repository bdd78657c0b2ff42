package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meditabi/meditabi_api/internal/models"
	"github.com/meditabi/meditabi_api/internal/utils"
)

// fakeOrderStore mirrors the conditional-update behavior of the real
// repository: a transition only applies when the stored status matches the
// precondition.
type fakeOrderStore struct {
	order *models.Order
	err   error

	confirmedAmount int64
	confirmedRate   *float64
}

func (f *fakeOrderStore) GetByID(ctx context.Context, id int) (*models.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.order == nil || f.order.ID != id {
		return nil, nil
	}
	cp := *f.order
	return &cp, nil
}

func (f *fakeOrderStore) ConfirmOrder(ctx context.Context, id int, totalAmount, commissionAmount int64, commissionRate *float64, adminNotes *string) (bool, error) {
	if f.order == nil || f.order.ID != id || f.order.Status != models.OrderPending {
		return false, nil
	}
	now := time.Now()
	f.order.Status = models.OrderConfirmed
	f.order.TotalAmount = totalAmount
	f.order.CommissionAmount = &commissionAmount
	f.order.CommissionRate = commissionRate
	if adminNotes != nil {
		f.order.AdminNotes = adminNotes
	}
	f.order.ConfirmedAt = &now
	f.confirmedAmount = commissionAmount
	f.confirmedRate = commissionRate
	return true, nil
}

func (f *fakeOrderStore) CompleteOrder(ctx context.Context, id int, adminNotes *string) (bool, error) {
	if f.order == nil || f.order.ID != id || f.order.Status != models.OrderConfirmed {
		return false, nil
	}
	now := time.Now()
	f.order.Status = models.OrderCompleted
	f.order.CompletedAt = &now
	return true, nil
}

func (f *fakeOrderStore) CancelOrder(ctx context.Context, id int, reason string, adminNotes *string) (bool, error) {
	if f.order == nil || f.order.ID != id {
		return false, nil
	}
	if f.order.Status != models.OrderPending && f.order.Status != models.OrderConfirmed {
		return false, nil
	}
	now := time.Now()
	f.order.Status = models.OrderCancelled
	f.order.CancelReason = &reason
	f.order.CancelledAt = &now
	return true, nil
}

type fakeCommissionCalc struct {
	amount int64
	rate   float64
	err    error
	calls  int
}

func (f *fakeCommissionCalc) CommissionFor(ctx context.Context, amount int64) (int64, float64, error) {
	f.calls++
	return f.amount, f.rate, f.err
}

type fakeNotifier struct {
	dispatched []*models.Order
}

func (f *fakeNotifier) DispatchOrderStatusEmail(order *models.Order) {
	f.dispatched = append(f.dispatched, order)
}

func pendingOrder() *models.Order {
	return &models.Order{
		ID:            7,
		OrderRef:      "ORD-2026-0007",
		CustomerEmail: "customer@example.com",
		Locale:        "ja",
		TotalAmount:   600000,
		Currency:      "JPY",
		Status:        models.OrderPending,
	}
}

func strPtr(s string) *string { return &s }

func int64Ptr(n int64) *int64 { return &n }

func TestApplyActionConfirmComputesCommission(t *testing.T) {
	store := &fakeOrderStore{order: pendingOrder()}
	calc := &fakeCommissionCalc{amount: 90000, rate: 15}
	notifier := &fakeNotifier{}
	s := NewOrderService(store, calc, notifier)

	updated, err := s.ApplyAction(context.Background(), 7, &OrderActionRequest{Action: models.ActionConfirm})

	require.NoError(t, err)
	assert.Equal(t, models.OrderConfirmed, updated.Status)
	require.NotNil(t, updated.CommissionAmount)
	assert.Equal(t, int64(90000), *updated.CommissionAmount)
	require.NotNil(t, updated.CommissionRate)
	assert.Equal(t, 15.0, *updated.CommissionRate)
	assert.Equal(t, 1, calc.calls)
	require.Len(t, notifier.dispatched, 1)
	assert.Equal(t, models.OrderConfirmed, notifier.dispatched[0].Status)
}

func TestApplyActionFullLifecycle(t *testing.T) {
	store := &fakeOrderStore{order: pendingOrder()}
	calc := &fakeCommissionCalc{amount: 90000, rate: 15}
	s := NewOrderService(store, calc, &fakeNotifier{})

	confirmed, err := s.ApplyAction(context.Background(), 7, &OrderActionRequest{Action: models.ActionConfirm})
	require.NoError(t, err)
	assert.Equal(t, models.OrderConfirmed, confirmed.Status)

	completed, err := s.ApplyAction(context.Background(), 7, &OrderActionRequest{Action: models.ActionComplete})
	require.NoError(t, err)
	assert.Equal(t, models.OrderCompleted, completed.Status)
	assert.NotNil(t, completed.CompletedAt)

	// Commission was set once at confirmation and survives completion.
	require.NotNil(t, completed.CommissionAmount)
	assert.Equal(t, int64(90000), *completed.CommissionAmount)
	assert.Equal(t, 1, calc.calls)
}

func TestApplyActionRejectsInvalidTransition(t *testing.T) {
	order := pendingOrder()
	order.Status = models.OrderCompleted
	s := NewOrderService(&fakeOrderStore{order: order}, &fakeCommissionCalc{}, &fakeNotifier{})

	_, err := s.ApplyAction(context.Background(), 7, &OrderActionRequest{Action: models.ActionConfirm})

	var ite *InvalidTransitionError
	require.ErrorAs(t, err, &ite)
	assert.Equal(t, models.OrderCompleted, ite.Current)
	assert.Equal(t, models.ActionConfirm, ite.Requested)
}

func TestApplyActionCancelledIsTerminal(t *testing.T) {
	order := pendingOrder()
	order.Status = models.OrderCancelled
	s := NewOrderService(&fakeOrderStore{order: order}, &fakeCommissionCalc{}, &fakeNotifier{})

	for _, action := range []models.OrderAction{models.ActionConfirm, models.ActionComplete, models.ActionCancel} {
		_, err := s.ApplyAction(context.Background(), 7, &OrderActionRequest{Action: action})
		var ite *InvalidTransitionError
		assert.ErrorAs(t, err, &ite, "action %s", action)
	}
}

func TestApplyActionOrderNotFound(t *testing.T) {
	s := NewOrderService(&fakeOrderStore{}, &fakeCommissionCalc{}, &fakeNotifier{})

	_, err := s.ApplyAction(context.Background(), 99, &OrderActionRequest{Action: models.ActionConfirm})

	assert.ErrorIs(t, err, utils.ErrOrderNotFound)
}

func TestApplyActionConfirmOverrideRequiresNote(t *testing.T) {
	store := &fakeOrderStore{order: pendingOrder()}
	s := NewOrderService(store, &fakeCommissionCalc{}, &fakeNotifier{})

	_, err := s.ApplyAction(context.Background(), 7, &OrderActionRequest{
		Action:           models.ActionConfirm,
		CommissionAmount: int64Ptr(12345),
	})

	assert.ErrorIs(t, err, utils.ErrOverrideNoteRequired)
	assert.Equal(t, models.OrderPending, store.order.Status)
}

func TestApplyActionConfirmOverrideWithNote(t *testing.T) {
	store := &fakeOrderStore{order: pendingOrder()}
	calc := &fakeCommissionCalc{amount: 90000, rate: 15}
	s := NewOrderService(store, calc, &fakeNotifier{})

	updated, err := s.ApplyAction(context.Background(), 7, &OrderActionRequest{
		Action:           models.ActionConfirm,
		CommissionAmount: int64Ptr(12345),
		AdminNotes:       strPtr("negotiated flat fee for repeat customer"),
	})

	require.NoError(t, err)
	require.NotNil(t, updated.CommissionAmount)
	assert.Equal(t, int64(12345), *updated.CommissionAmount)
	// Override bypasses the tier table entirely.
	assert.Nil(t, updated.CommissionRate)
	assert.Zero(t, calc.calls)
}

func TestApplyActionCancelRequiresReason(t *testing.T) {
	s := NewOrderService(&fakeOrderStore{order: pendingOrder()}, &fakeCommissionCalc{}, &fakeNotifier{})

	_, err := s.ApplyAction(context.Background(), 7, &OrderActionRequest{Action: models.ActionCancel})
	assert.ErrorIs(t, err, utils.ErrCancelReasonRequired)

	_, err = s.ApplyAction(context.Background(), 7, &OrderActionRequest{
		Action:       models.ActionCancel,
		CancelReason: strPtr("   "),
	})
	assert.ErrorIs(t, err, utils.ErrCancelReasonRequired)
}

func TestApplyActionCancelReasonTooLong(t *testing.T) {
	s := NewOrderService(&fakeOrderStore{order: pendingOrder()}, &fakeCommissionCalc{}, &fakeNotifier{})

	long := strings.Repeat("x", models.MaxCancelReasonLen+1)
	_, err := s.ApplyAction(context.Background(), 7, &OrderActionRequest{
		Action:       models.ActionCancel,
		CancelReason: &long,
	})

	assert.ErrorIs(t, err, utils.ErrCancelReasonTooLong)
}

func TestApplyActionCancelConfirmedOrder(t *testing.T) {
	order := pendingOrder()
	order.Status = models.OrderConfirmed
	store := &fakeOrderStore{order: order}
	s := NewOrderService(store, &fakeCommissionCalc{}, &fakeNotifier{})

	updated, err := s.ApplyAction(context.Background(), 7, &OrderActionRequest{
		Action:       models.ActionCancel,
		CancelReason: strPtr("customer requested cancellation"),
	})

	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, updated.Status)
	require.NotNil(t, updated.CancelReason)
	assert.Equal(t, "customer requested cancellation", *updated.CancelReason)
}

func TestApplyActionConcurrentTransitionConflict(t *testing.T) {
	// The store reports the precondition no longer held: another admin moved
	// the order between our read and the conditional update.
	store := &racingOrderStore{inner: &fakeOrderStore{order: pendingOrder()}}
	s := NewOrderService(store, &fakeCommissionCalc{amount: 90000, rate: 15}, &fakeNotifier{})

	_, err := s.ApplyAction(context.Background(), 7, &OrderActionRequest{Action: models.ActionConfirm})

	assert.ErrorIs(t, err, utils.ErrTransitionConflict)
}

// racingOrderStore simulates a lost race: reads see pending, but the
// conditional update finds the row already moved on.
type racingOrderStore struct {
	inner *fakeOrderStore
}

func (r *racingOrderStore) GetByID(ctx context.Context, id int) (*models.Order, error) {
	return r.inner.GetByID(ctx, id)
}

func (r *racingOrderStore) ConfirmOrder(ctx context.Context, id int, totalAmount, commissionAmount int64, commissionRate *float64, adminNotes *string) (bool, error) {
	return false, nil
}

func (r *racingOrderStore) CompleteOrder(ctx context.Context, id int, adminNotes *string) (bool, error) {
	return false, nil
}

func (r *racingOrderStore) CancelOrder(ctx context.Context, id int, reason string, adminNotes *string) (bool, error) {
	return false, nil
}

func TestApplyActionCommissionBackendFailure(t *testing.T) {
	store := &fakeOrderStore{order: pendingOrder()}
	calcErr := errors.New("tier table unavailable")
	s := NewOrderService(store, &fakeCommissionCalc{err: calcErr}, &fakeNotifier{})

	_, err := s.ApplyAction(context.Background(), 7, &OrderActionRequest{Action: models.ActionConfirm})

	assert.ErrorIs(t, err, calcErr)
	assert.Equal(t, models.OrderPending, store.order.Status)
}
