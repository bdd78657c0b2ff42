package models

import "time"

type OrderStatus string
type OrderAction string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

const (
	ActionConfirm  OrderAction = "confirm"
	ActionComplete OrderAction = "complete"
	ActionCancel   OrderAction = "cancel"
)

// MaxCancelReasonLen bounds the admin-supplied cancellation reason.
const MaxCancelReasonLen = 500

// validTransitions encodes the order state machine. completed and cancelled
// are terminal.
var validTransitions = map[OrderStatus]map[OrderAction]OrderStatus{
	OrderPending: {
		ActionConfirm: OrderConfirmed,
		ActionCancel:  OrderCancelled,
	},
	OrderConfirmed: {
		ActionComplete: OrderCompleted,
		ActionCancel:   OrderCancelled,
	},
}

// NextStatus returns the status an action would move the order to, and whether
// the transition is allowed from the current status.
func NextStatus(current OrderStatus, action OrderAction) (OrderStatus, bool) {
	next, ok := validTransitions[current][action]
	return next, ok
}

// Order is a booking attributed (optionally) to a partner guide. Amounts are
// integral JPY. CommissionAmount is written exactly once, at confirmation,
// and never recomputed when the tier table changes later.
type Order struct {
	ID               int         `db:"id" json:"id"`
	OrderRef         string      `db:"order_ref" json:"orderRef"`
	GuideID          *int        `db:"guide_id" json:"guideId,omitempty"`
	CustomerEmail    string      `db:"customer_email" json:"customerEmail"`
	CustomerName     *string     `db:"customer_name" json:"customerName,omitempty"`
	Locale           string      `db:"locale" json:"locale"`
	TotalAmount      int64       `db:"total_amount" json:"totalAmount"`
	Currency         string      `db:"currency" json:"currency"`
	Status           OrderStatus `db:"status" json:"status"`
	CommissionAmount *int64      `db:"commission_amount" json:"commissionAmount,omitempty"`
	CommissionRate   *float64    `db:"commission_rate" json:"commissionRate,omitempty"`
	CancelReason     *string     `db:"cancel_reason" json:"cancelReason,omitempty"`
	AdminNotes       *string     `db:"admin_notes" json:"adminNotes,omitempty"`
	ConfirmedAt      *time.Time  `db:"confirmed_at" json:"confirmedAt,omitempty"`
	CompletedAt      *time.Time  `db:"completed_at" json:"completedAt,omitempty"`
	CancelledAt      *time.Time  `db:"cancelled_at" json:"cancelledAt,omitempty"`
	CreatedAt        time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time   `db:"updated_at" json:"-"`
}
