package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/meditabi/meditabi_api/internal/models"
	"github.com/meditabi/meditabi_api/internal/utils"
)

// OrderRepository provides data access methods for the orders table. Status
// transitions are single conditional updates so the store, not the
// application, serializes concurrent admin actions.
type OrderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository creates a new OrderRepository.
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `id, order_ref, guide_id, customer_email, customer_name, locale,
       total_amount, currency, status, commission_amount, commission_rate,
       cancel_reason, admin_notes, confirmed_at, completed_at, cancelled_at,
       created_at, updated_at`

// GetByID finds an order by id. Returns (nil, nil) if absent.
func (r *OrderRepository) GetByID(ctx context.Context, id int) (*models.Order, error) {
	var o models.Order
	err := r.db.GetContext(ctx, &o, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

// GetByOrderRef finds an order by the checkout reference. Returns (nil, nil) if absent.
func (r *OrderRepository) GetByOrderRef(ctx context.Context, ref string) (*models.Order, error) {
	var o models.Order
	err := r.db.GetContext(ctx, &o, `SELECT `+orderColumns+` FROM orders WHERE order_ref = $1`, ref)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

// Create inserts a new pending order.
func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	query := `INSERT INTO orders (order_ref, guide_id, customer_email, customer_name, locale, total_amount, currency, status)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
              RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		o.OrderRef,
		o.GuideID,
		o.CustomerEmail,
		o.CustomerName,
		o.Locale,
		o.TotalAmount,
		o.Currency,
		o.Status,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if isUniqueViolation(err) {
		return utils.ErrDuplicateOrderRef
	}
	return err
}

// ConfirmOrder moves a pending order to confirmed, writing the commission
// exactly once. Returns false when the order was not pending anymore.
func (r *OrderRepository) ConfirmOrder(ctx context.Context, id int, totalAmount, commissionAmount int64, commissionRate *float64, adminNotes *string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders
         SET status = $2, total_amount = $3, commission_amount = $4, commission_rate = $5,
             admin_notes = COALESCE($6, admin_notes), confirmed_at = now(), updated_at = now()
         WHERE id = $1 AND status = $7`,
		id, models.OrderConfirmed, totalAmount, commissionAmount, commissionRate, adminNotes, models.OrderPending)
	return oneRowAffected(res, err)
}

// CompleteOrder moves a confirmed order to completed. The commission set at
// confirmation is left untouched.
func (r *OrderRepository) CompleteOrder(ctx context.Context, id int, adminNotes *string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders
         SET status = $2, admin_notes = COALESCE($3, admin_notes), completed_at = now(), updated_at = now()
         WHERE id = $1 AND status = $4`,
		id, models.OrderCompleted, adminNotes, models.OrderConfirmed)
	return oneRowAffected(res, err)
}

// CancelOrder moves a pending or confirmed order to cancelled. Any previously
// set commission fields are preserved for the audit trail.
func (r *OrderRepository) CancelOrder(ctx context.Context, id int, reason string, adminNotes *string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders
         SET status = $2, cancel_reason = $3, admin_notes = COALESCE($4, admin_notes),
             cancelled_at = now(), updated_at = now()
         WHERE id = $1 AND status IN ($5, $6)`,
		id, models.OrderCancelled, reason, adminNotes, models.OrderPending, models.OrderConfirmed)
	return oneRowAffected(res, err)
}

func oneRowAffected(res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// AdminOrderFilter holds admin list filters.
type AdminOrderFilter struct {
	Status    *string
	GuideID   *int
	OrderRef  *string
	StartDate *string
	EndDate   *string
	Page      int
	Limit     int
}

// AdminOrderResult is a page of orders plus pagination totals.
type AdminOrderResult struct {
	Orders     []models.Order
	Page       int
	Limit      int
	TotalItems int
	TotalPages int
}

// ListAdmin returns orders for the back office with filters and pagination.
func (r *OrderRepository) ListAdmin(ctx context.Context, filter *AdminOrderFilter) (*AdminOrderResult, error) {
	baseQ := `FROM orders o WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	if filter.Status != nil && *filter.Status != "" {
		baseQ += fmt.Sprintf(" AND o.status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.GuideID != nil {
		baseQ += fmt.Sprintf(" AND o.guide_id = $%d", argIdx)
		args = append(args, *filter.GuideID)
		argIdx++
	}
	if filter.OrderRef != nil && *filter.OrderRef != "" {
		baseQ += fmt.Sprintf(" AND o.order_ref ILIKE $%d", argIdx)
		args = append(args, "%"+*filter.OrderRef+"%")
		argIdx++
	}
	if filter.StartDate != nil && *filter.StartDate != "" {
		baseQ += fmt.Sprintf(" AND o.created_at >= $%d::date", argIdx)
		args = append(args, *filter.StartDate)
		argIdx++
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		baseQ += fmt.Sprintf(" AND o.created_at < ($%d::date + interval '1 day')", argIdx)
		args = append(args, *filter.EndDate)
		argIdx++
	}

	// Count total
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQ, args...); err != nil {
		return nil, err
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	offset := (filter.Page - 1) * filter.Limit

	listQ := fmt.Sprintf(`SELECT `+orderColumns+` %s ORDER BY o.created_at DESC LIMIT $%d OFFSET $%d`,
		baseQ, argIdx, argIdx+1)
	args = append(args, filter.Limit, offset)

	var orders []models.Order
	if err := r.db.SelectContext(ctx, &orders, listQ, args...); err != nil {
		return nil, err
	}

	totalPages := (total + filter.Limit - 1) / filter.Limit
	return &AdminOrderResult{
		Orders:     orders,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalItems: total,
		TotalPages: totalPages,
	}, nil
}

// GuideOrderTotals aggregates attributed orders for a guide. Cancelled orders
// keep their commission fields but do not count toward payable totals.
type GuideOrderTotals struct {
	OrderCount      int   `db:"order_count"`
	TotalAmount     int64 `db:"total_amount"`
	TotalCommission int64 `db:"total_commission"`
}

// GetGuideOrderTotals returns attributed order totals for a guide.
func (r *OrderRepository) GetGuideOrderTotals(ctx context.Context, guideID int) (*GuideOrderTotals, error) {
	var t GuideOrderTotals
	err := r.db.GetContext(ctx, &t,
		`SELECT COUNT(*) AS order_count,
                COALESCE(SUM(total_amount), 0) AS total_amount,
                COALESCE(SUM(commission_amount), 0) AS total_commission
         FROM orders
         WHERE guide_id = $1 AND status IN ($2, $3)`,
		guideID, models.OrderConfirmed, models.OrderCompleted)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
