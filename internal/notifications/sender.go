package notifications

import (
	"context"
	"fmt"
	"html"
	"strings"

	"coursemart/internal/config"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Sender delivers transactional email to buyers.
type Sender interface {
	SendPurchaseReceipt(ctx context.Context, r Receipt) error
}

// Receipt holds what a purchase receipt shows.
type Receipt struct {
	Email           string
	CourseTitle     string
	AmountPaise     int64
	Currency        string
	MerchantOrderID string
}

type mailClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// NewSender builds a SendGrid sender, or a noop sender when no API key is configured.
func NewSender(cfg *config.Config, logger zerolog.Logger) Sender {
	if strings.TrimSpace(cfg.SendGridAPIKey) == "" {
		return noopSender{}
	}
	return newSendGridSender(sendgrid.NewSendClient(cfg.SendGridAPIKey), cfg.SendGridFromName, cfg.SendGridFromEmail, logger)
}

type sendGridSender struct {
	client mailClient
	from   *mail.Email
	logger zerolog.Logger
}

func newSendGridSender(client mailClient, fromName, fromEmail string, logger zerolog.Logger) *sendGridSender {
	return &sendGridSender{
		client: client,
		from:   mail.NewEmail(fromName, fromEmail),
		logger: logger.With().Str("service", "Notifications").Logger(),
	}
}

func (s *sendGridSender) SendPurchaseReceipt(ctx context.Context, r Receipt) error {
	amount := FormatAmount(r.AmountPaise, r.Currency)
	subject := fmt.Sprintf("Your receipt for %s", r.CourseTitle)
	plain := fmt.Sprintf("Thanks for your purchase!\n\nCourse: %s\nAmount: %s\nOrder: %s\n",
		r.CourseTitle, amount, r.MerchantOrderID)
	htmlContent := fmt.Sprintf("<p>Thanks for your purchase!</p><p><strong>%s</strong><br>Amount: %s<br>Order: %s</p>",
		html.EscapeString(r.CourseTitle), html.EscapeString(amount), html.EscapeString(r.MerchantOrderID))

	message := mail.NewSingleEmail(s.from, subject, mail.NewEmail("", r.Email), plain, htmlContent)
	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("send receipt for %s: %w", r.MerchantOrderID, err)
	}
	if resp.StatusCode >= 300 {
		s.logger.Error().
			Int("status", resp.StatusCode).
			Str("merchant_order_id", r.MerchantOrderID).
			Str("body", resp.Body).
			Msg("SendGrid rejected receipt email")
		return fmt.Errorf("sendgrid returned status %d", resp.StatusCode)
	}
	return nil
}

// FormatAmount renders minor units as a human amount, e.g. 149900 INR -> "₹1,499.00".
func FormatAmount(minor int64, currency string) string {
	major := float64(minor) / 100
	switch strings.ToUpper(currency) {
	case "", "INR":
		return "₹" + humanize.FormatFloat("#,###.##", major)
	case "USD":
		return "$" + humanize.FormatFloat("#,###.##", major)
	default:
		return humanize.FormatFloat("#,###.##", major) + " " + strings.ToUpper(currency)
	}
}

type noopSender struct{}

func (noopSender) SendPurchaseReceipt(context.Context, Receipt) error { return nil }
