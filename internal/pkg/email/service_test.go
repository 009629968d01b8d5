package email

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
)

type recordingSender struct {
	sent []*Email
	err  error
}

func (r *recordingSender) Send(_ context.Context, e *Email) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, e)
	return nil
}

func newTestService(sender Sender) *EmailService {
	s := NewEmailServiceWithSender(sender, "Storefront", "https://shop.example.com", time.Second)
	s.now = func() time.Time { return time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC) }
	return s
}

func TestSendWelcomeEmail(t *testing.T) {
	sender := &recordingSender{}
	require.NoError(t, newTestService(sender).SendWelcomeEmail(context.Background(), "ana@example.com"))

	require.Len(t, sender.sent, 1)
	e := sender.sent[0]
	assert.Equal(t, []string{"ana@example.com"}, e.To)
	assert.Equal(t, EmailTypeWelcome, e.Type)
	assert.Contains(t, e.Subject, "Storefront")
	assert.Contains(t, e.HTMLContent, "https://shop.example.com/shop")
	assert.Contains(t, e.HTMLContent, "2026")
}

func TestSendOrderConfirmationEmail(t *testing.T) {
	sender := &recordingSender{}
	err := newTestService(sender).SendOrderConfirmationEmail(context.Background(), OrderConfirmationData{
		CustomerName:  "Ana <script>",
		CustomerEmail: "ana@example.com",
		OrderNumber:   "ORD-20260115-0001",
		Items:         []OrderItem{{Name: "Mate", Quantity: 2, Price: "$0.50", Total: "$1.00"}},
		Subtotal:      "$1.00",
		Shipping:      "$0.00",
		Total:         "$1.00",
	})
	require.NoError(t, err)

	e := sender.sent[0]
	assert.Equal(t, "Order Confirmation - ORD-20260115-0001", e.Subject)
	assert.Contains(t, e.HTMLContent, "Mate")
	assert.NotContains(t, e.HTMLContent, "<script>")
	assert.NotContains(t, e.HTMLContent, "Discount")
}

func TestSendWrapsSenderErrors(t *testing.T) {
	boom := errors.New("relay down")
	err := newTestService(&recordingSender{err: boom}).SendWelcomeEmail(context.Background(), "ana@example.com")
	assert.ErrorIs(t, err, boom)
}

func TestNewEmailServiceProviders(t *testing.T) {
	logger, hook := test.NewNullLogger()

	cfg := &config.Config{}
	cfg.Email.Provider = "log"
	s, err := NewEmailService(cfg, logger)
	require.NoError(t, err)
	require.NoError(t, s.SendWelcomeEmail(context.Background(), "ana@example.com"))
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, "ana@example.com", hook.LastEntry().Data["to"])

	cfg.Email.Provider = "carrier-pigeon"
	_, err = NewEmailService(cfg, logger)
	assert.Error(t, err)
}

func TestSMTPSenderRequiresHost(t *testing.T) {
	err := NewSMTPSender(config.EmailConfig{}).Send(context.Background(), &Email{To: []string{"a@b.c"}})
	assert.Error(t, err)
}
