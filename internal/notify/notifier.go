// Package notify delivers customer-facing notices over email and SMS.
// Delivery is best-effort: the sale that triggered a notice has already
// committed, so failures are reported to the caller for logging only.
package notify

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/dukapos/dukapos/internal/domain/customer"
	"github.com/dukapos/dukapos/internal/domain/sale"
)

// EmailSender sends a single email message.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SMSSender sends a single SMS message.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

var _ sale.Notifier = (*CustomerNotifier)(nil)

// CustomerNotifier fans a notice out over every channel the customer has
// contact details for. Channels run concurrently; a nil sender disables
// that channel.
type CustomerNotifier struct {
	email EmailSender
	sms   SMSSender
}

// NewCustomerNotifier creates a CustomerNotifier with the given transports.
func NewCustomerNotifier(email EmailSender, sms SMSSender) *CustomerNotifier {
	return &CustomerNotifier{email: email, sms: sms}
}

// OverpaymentCredited tells the customer their overpayment was saved as
// store credit.
func (n *CustomerNotifier) OverpaymentCredited(ctx context.Context, c *customer.Customer, amount decimal.Decimal) error {
	return n.send(ctx, c,
		"Overpayment Notice",
		fmt.Sprintf("Hello %s, you have overpaid by %s. Your credit has been saved for future purchases.", c.Name, amount),
		fmt.Sprintf("Overpayment of %s saved as credit.", amount),
	)
}

// BalanceOwed tells the customer the outstanding balance on a pending sale.
func (n *CustomerNotifier) BalanceOwed(ctx context.Context, c *customer.Customer, amount decimal.Decimal) error {
	return n.send(ctx, c,
		"Pending Balance Notice",
		fmt.Sprintf("Hello %s, you still owe %s for your recent transaction. Please pay the balance.", c.Name, amount),
		fmt.Sprintf("You owe %s. Kindly clear your balance.", amount),
	)
}

func (n *CustomerNotifier) send(ctx context.Context, c *customer.Customer, subject, emailBody, smsBody string) error {
	g, ctx := errgroup.WithContext(ctx)

	if n.email != nil && c.Email != "" {
		g.Go(func() error {
			return n.email.SendEmail(ctx, c.Email, subject, emailBody)
		})
	}
	if n.sms != nil && c.Phone != "" {
		g.Go(func() error {
			return n.sms.SendSMS(ctx, c.Phone, smsBody)
		})
	}

	return g.Wait()
}
