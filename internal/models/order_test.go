package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextStatus(t *testing.T) {
	tests := []struct {
		current OrderStatus
		action  OrderAction
		next    OrderStatus
		ok      bool
	}{
		{OrderPending, ActionConfirm, OrderConfirmed, true},
		{OrderPending, ActionCancel, OrderCancelled, true},
		{OrderPending, ActionComplete, "", false},
		{OrderConfirmed, ActionComplete, OrderCompleted, true},
		{OrderConfirmed, ActionCancel, OrderCancelled, true},
		{OrderConfirmed, ActionConfirm, "", false},
		{OrderCompleted, ActionConfirm, "", false},
		{OrderCompleted, ActionCancel, "", false},
		{OrderCancelled, ActionConfirm, "", false},
		{OrderCancelled, ActionComplete, "", false},
	}
	for _, tt := range tests {
		next, ok := NextStatus(tt.current, tt.action)
		assert.Equal(t, tt.ok, ok, "%s + %s", tt.current, tt.action)
		if tt.ok {
			assert.Equal(t, tt.next, next, "%s + %s", tt.current, tt.action)
		}
	}
}
