package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/meditabi/meditabi_api/internal/models"
	"github.com/meditabi/meditabi_api/pkg/resend"
)

// emailSender is the slice of the resend client the notifier needs.
type emailSender interface {
	Send(ctx context.Context, email *resend.Email) (string, error)
}

const notifyTimeout = 15 * time.Second

// NotificationService sends order status emails. Delivery is best-effort: the
// state change is the source of truth and a failed email never propagates to
// the caller or rolls anything back.
type NotificationService struct {
	mail emailSender
	from string
}

// NewNotificationService creates a new NotificationService. mail may be nil
// when no email provider is configured; dispatch becomes a no-op.
func NewNotificationService(mail emailSender, from string) *NotificationService {
	return &NotificationService{mail: mail, from: from}
}

// statusSubjects maps locale -> order status -> subject line. Unlisted
// locales fall back to English.
var statusSubjects = map[string]map[models.OrderStatus]string{
	"ja": {
		models.OrderConfirmed: "ご予約が確定しました",
		models.OrderCompleted: "ご利用ありがとうございました",
		models.OrderCancelled: "ご予約のキャンセルについて",
	},
	"en": {
		models.OrderConfirmed: "Your booking is confirmed",
		models.OrderCompleted: "Thank you for your visit",
		models.OrderCancelled: "Your booking has been cancelled",
	},
}

// DispatchOrderStatusEmail fires a status notification for the order on a
// detached goroutine and forgets about it.
func (s *NotificationService) DispatchOrderStatusEmail(order *models.Order) {
	if s.mail == nil || order == nil || order.CustomerEmail == "" {
		return
	}

	subject := subjectFor(order.Locale, order.Status)
	if subject == "" {
		return
	}

	email := &resend.Email{
		From:    s.from,
		To:      []string{order.CustomerEmail},
		Subject: subject,
		Text:    bodyFor(order),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if _, err := s.mail.Send(ctx, email); err != nil {
			log.Warn().Err(err).Str("order_ref", order.OrderRef).Str("status", string(order.Status)).Msg("order status email failed")
			return
		}
		log.Debug().Str("order_ref", order.OrderRef).Str("status", string(order.Status)).Msg("order status email sent")
	}()
}

func subjectFor(locale string, status models.OrderStatus) string {
	if subjects, ok := statusSubjects[locale]; ok {
		if subj, ok := subjects[status]; ok {
			return subj
		}
	}
	return statusSubjects["en"][status]
}

func bodyFor(order *models.Order) string {
	name := "Customer"
	if order.CustomerName != nil && *order.CustomerName != "" {
		name = *order.CustomerName
	}
	return fmt.Sprintf(
		"Dear %s,\n\nYour booking %s is now %s.\nTotal: %d %s\n\nMeditabi",
		name, order.OrderRef, order.Status, order.TotalAmount, order.Currency,
	)
}
