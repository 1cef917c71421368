package email

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/2sipping0/pixelnextdigital/internal/domain/model"
)

// MailerConfig holds the sender identities and recipients
type MailerConfig struct {
	From            string
	AdminFrom       string
	AdminRecipients []string
	AdminPortalURL  string
}

// Mailer renders and sends order emails
type Mailer struct {
	sender Sender
	cfg    MailerConfig
	logger *zap.Logger
	now    func() time.Time
}

func NewMailer(sender Sender, cfg MailerConfig, logger *zap.Logger) *Mailer {
	cfg.AdminPortalURL = strings.TrimRight(cfg.AdminPortalURL, "/")
	return &Mailer{sender: sender, cfg: cfg, logger: logger, now: time.Now}
}

// SendCustomerConfirmation emails the order summary to the customer
func (m *Mailer) SendCustomerConfirmation(ctx context.Context, order *model.Order) error {
	html, err := RenderCustomerConfirmation(CustomerConfirmation{
		BusinessName:  order.BusinessName,
		OrderID:       order.OrderID,
		OrderDate:     order.OrderDate,
		SelectedPlan:  order.SelectedPlan,
		PaymentMethod: order.PaymentMethod.DisplayName(),
		TotalAmount:   order.TotalAmount,
		Year:          m.now().Year(),
	})
	if err != nil {
		return err
	}

	id, err := m.sender.Send(ctx, &Message{
		From:    m.cfg.From,
		To:      []string{order.Email},
		Subject: fmt.Sprintf("Order Confirmation - %s", order.OrderID),
		HTML:    html,
		Tags:    map[string]string{"kind": "customer_confirmation", "order_id": order.OrderID},
	})
	if err != nil {
		return err
	}

	m.logger.Info("Customer confirmation sent",
		zap.String("order_id", order.OrderID),
		zap.String("email_id", id))
	return nil
}

// SendAdminAlert emails each admin recipient separately. A failing
// recipient does not stop the others; the last error is returned.
func (m *Mailer) SendAdminAlert(ctx context.Context, order *model.Order) error {
	html, err := RenderAdminAlert(AdminAlert{
		OrderID:      order.OrderID,
		OrderDate:    order.OrderDate,
		SelectedPlan: order.SelectedPlan,
		TotalAmount:  order.TotalAmount,
		BusinessName: order.BusinessName,
		Email:        order.Email,
		Phone:        order.Phone,
		OrderURL:     fmt.Sprintf("%s/orders/%s", m.cfg.AdminPortalURL, order.OrderID),
		Year:         m.now().Year(),
	})
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("New Order Alert - %s Package - %s", order.SelectedPlan, order.OrderID)

	var lastErr error
	for _, recipient := range m.cfg.AdminRecipients {
		_, err := m.sender.Send(ctx, &Message{
			From:    m.cfg.AdminFrom,
			To:      []string{recipient},
			Subject: subject,
			HTML:    html,
			Tags:    map[string]string{"kind": "admin_alert", "order_id": order.OrderID},
		})
		if err != nil {
			m.logger.Warn("Admin alert failed",
				zap.String("order_id", order.OrderID),
				zap.String("recipient", recipient),
				zap.Error(err))
			lastErr = err
		}
	}
	return lastErr
}
