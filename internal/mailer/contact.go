// internal/mailer/contact.go
//
// High-level flows built on Mailer.Send: the contact form pair, the
// verification-code message, and the admin test email.
package mailer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ContactForm is a validated purchase inquiry.
type ContactForm struct {
	Name       string
	Email      string
	Message    string
	OfferPrice float64
}

// ContactFlow sends the admin notification and, only when that delivery
// succeeds, a confirmation to the customer.  The confirmation is best
// effort and never changes the returned result.
func (m *Mailer) ContactFlow(ctx context.Context, b Branding, form ContactForm) Result {
	if strings.TrimSpace(form.Name) == "" ||
		strings.TrimSpace(form.Email) == "" ||
		strings.TrimSpace(form.Message) == "" {
		return Result{Success: false, Message: "Please fill in all required fields."}
	}

	subject := fmt.Sprintf("Purchase inquiry for %s", b.Domain)
	if form.OfferPrice > 0 {
		subject += fmt.Sprintf(" (offer %s)", formatOffer(form.OfferPrice))
	}
	body, err := adminNotificationBody(b, form)
	if err != nil {
		zap.L().Error("admin notification render failed", zap.Error(err))
		return Result{Success: false, Message: "Internal error building the notification email."}
	}

	result := m.Send(ctx, Email{
		Subject: subject,
		HTML:    body,
		ReplyTo: form.Email,
		Domain:  b.Domain,
	})
	if !result.Success {
		return result
	}

	confBody, err := confirmationBody(b, form)
	if err != nil {
		zap.L().Error("confirmation render failed", zap.Error(err))
		return result
	}
	conf := m.Send(ctx, Email{
		Subject: fmt.Sprintf("Thank you for your inquiry about %s", b.Domain),
		HTML:    confBody,
		To:      form.Email,
		Domain:  b.Domain,
	})
	if !conf.Success {
		zap.L().Warn("customer confirmation not delivered",
			zap.String("to", form.Email),
			zap.String("reason", conf.Message))
	}
	return result
}

// VerificationEmail delivers a one-time code to the customer address.
func (m *Mailer) VerificationEmail(ctx context.Context, b Branding, to, code string) Result {
	body, err := verificationBody(b, code)
	if err != nil {
		zap.L().Error("verification render failed", zap.Error(err))
		return Result{Success: false, Message: "Internal error building the verification email."}
	}
	return m.Send(ctx, Email{
		Subject: fmt.Sprintf("Your verification code for %s", b.Domain),
		HTML:    body,
		To:      to,
		Domain:  b.Domain,
	})
}

// TestEmail lets the back office confirm the outbound settings work.
func (m *Mailer) TestEmail(ctx context.Context, b Branding, to string) Result {
	body, err := testEmailBody(b)
	if err != nil {
		zap.L().Error("test email render failed", zap.Error(err))
		return Result{Success: false, Message: "Internal error building the test email."}
	}
	return m.Send(ctx, Email{
		Subject: "Outbound email test",
		HTML:    body,
		To:      to,
		Domain:  b.Domain,
	})
}
