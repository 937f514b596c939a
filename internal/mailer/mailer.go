// internal/mailer/mailer.go
//
// Outbound email dispatch.
//
// Context
// -------
// All notification mail funnels through Mailer.Send, which resolves
// missing envelope fields from the email-settings document, tries the
// protocol client first, and falls back once to a go-mail submission.
// Result mirrors the JSON the front end expects: a success flag plus a
// human-readable message naming the path that delivered (or why not).
//
// Notes
// -----
// Transports are constructor fields so tests can swap in fakes without a
// network.  The fallback reuses the same relay settings; it exists to
// cover relays whose dialects the lean client does not speak.
package mailer

import (
	"context"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/gentpan/NameDeal/internal/metrics"
	"github.com/gentpan/NameDeal/internal/settings"
	"github.com/gentpan/NameDeal/internal/smtp"
)

// Email is one dispatch request.  Zero-valued envelope fields are filled
// from settings: To from default_to_email, From from from_email (or
// noreply@<domain>), FromName from from_name.
type Email struct {
	Subject  string
	HTML     string
	To       string
	From     string
	FromName string
	ReplyTo  string
	Domain   string // site the mail is about, used for the noreply fallback
}

// Result reports one dispatch outcome.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// transport delivers one already-resolved message.
type transport interface {
	Send(ctx context.Context, msg smtp.Message) error
}

// Mailer resolves, renders, and delivers notification mail.
type Mailer struct {
	settings *settings.Store
	timeout  time.Duration

	primary  func(cfg settings.Email, timeout time.Duration) transport
	fallback func(cfg settings.Email, timeout time.Duration) transport
}

// New returns a Mailer using the protocol client with a go-mail fallback.
// timeout bounds one relay exchange; zero or negative falls back to the
// protocol client's default.
func New(st *settings.Store, timeout time.Duration) *Mailer {
	if timeout <= 0 {
		timeout = smtp.DefaultTimeout
	}
	return &Mailer{
		settings: st,
		timeout:  timeout,
		primary:  newProtocolTransport,
		fallback: newSubmissionTransport,
	}
}

// Send resolves defaults and delivers.  The returned Result is always
// populated; errors are folded into Result.Message.
func (m *Mailer) Send(ctx context.Context, email Email) Result {
	cfg, err := m.settings.Email()
	if err != nil {
		zap.L().Error("email settings unreadable", zap.Error(err))
		metrics.EmailsFailed.Inc()
		return Result{Success: false, Message: "Email settings could not be read."}
	}

	if email.To == "" {
		email.To = cfg.DefaultToEmail
	}
	if email.To == "" {
		metrics.EmailsFailed.Inc()
		return Result{Success: false, Message: "No recipient configured. Set a default recipient in the email settings."}
	}
	if email.From == "" {
		email.From = cfg.FromEmail
	}
	if email.From == "" && email.Domain != "" {
		email.From = "noreply@" + email.Domain
	}
	if email.FromName == "" {
		email.FromName = cfg.FromName
	}
	replyTo := email.ReplyTo
	if replyTo == "" {
		replyTo = email.From
	}
	msg := smtp.Message{
		From:     email.From,
		FromName: email.FromName,
		To:       email.To,
		ReplyTo:  replyTo,
		Subject:  email.Subject,
		HTML:     email.HTML,
	}

	if cfg.SMTPHost == "" {
		metrics.EmailsFailed.Inc()
		return Result{Success: false, Message: "Email is not configured. Set an SMTP host in the email settings."}
	}

	if err := m.primary(cfg, m.timeout).Send(ctx, msg); err == nil {
		metrics.EmailsSent.WithLabelValues("smtp").Inc()
		return Result{Success: true, Message: "Email sent (SMTP)."}
	} else {
		zap.L().Warn("smtp delivery failed, trying fallback",
			zap.String("to", email.To),
			zap.Error(err))
	}

	if err := m.fallback(cfg, m.timeout).Send(ctx, msg); err != nil {
		zap.L().Error("fallback delivery failed",
			zap.String("to", email.To),
			zap.Error(err))
		metrics.EmailsFailed.Inc()
		return Result{Success: false, Message: "Email delivery failed. Check the SMTP settings."}
	}
	metrics.EmailsSent.WithLabelValues("fallback").Inc()
	return Result{Success: true, Message: "Email sent (SMTP failed, delivered via fallback)."}
}

/*──────────────────────────── transports ─────────────────────────────*/

type protocolTransport struct {
	client *smtp.Client
}

func newProtocolTransport(cfg settings.Email, timeout time.Duration) transport {
	return protocolTransport{client: smtp.New(smtp.Config{
		Host:       cfg.SMTPHost,
		Port:       cfg.SMTPPort,
		Encryption: cfg.SMTPEncryption,
		Username:   cfg.SMTPUsername,
		Password:   cfg.SMTPPassword,
		Timeout:    timeout,
	})}
}

func (t protocolTransport) Send(ctx context.Context, msg smtp.Message) error {
	return t.client.Send(ctx, msg)
}

type submissionTransport struct {
	cfg     settings.Email
	timeout time.Duration
}

func newSubmissionTransport(cfg settings.Email, timeout time.Duration) transport {
	return submissionTransport{cfg: cfg, timeout: timeout}
}

func (t submissionTransport) Send(ctx context.Context, msg smtp.Message) error {
	opts := []gomail.Option{gomail.WithPort(t.cfg.SMTPPort)}
	switch t.cfg.SMTPEncryption {
	case settings.EncryptionSSL:
		opts = append(opts, gomail.WithSSL())
	case settings.EncryptionTLS:
		opts = append(opts, gomail.WithTLSPortPolicy(gomail.TLSMandatory))
	default:
		opts = append(opts, gomail.WithTLSPortPolicy(gomail.NoTLS))
	}
	if t.cfg.SMTPUsername != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthLogin),
			gomail.WithUsername(t.cfg.SMTPUsername),
			gomail.WithPassword(t.cfg.SMTPPassword),
		)
	}
	client, err := gomail.NewClient(t.cfg.SMTPHost, opts...)
	if err != nil {
		return fmt.Errorf("mailer: fallback client: %w", err)
	}
	out := gomail.NewMsg()
	out.SetDate()
	out.SetMessageID()
	if msg.FromName != "" {
		err = out.FromFormat(msg.FromName, msg.From)
	} else {
		err = out.From(msg.From)
	}
	if err != nil {
		return fmt.Errorf("mailer: fallback from: %w", err)
	}
	if err := out.To(msg.To); err != nil {
		return fmt.Errorf("mailer: fallback to: %w", err)
	}
	if msg.ReplyTo != "" {
		if err := out.ReplyTo(msg.ReplyTo); err != nil {
			return fmt.Errorf("mailer: fallback reply-to: %w", err)
		}
	}
	out.Subject(msg.Subject)
	out.SetBodyString(gomail.TypeTextHTML, msg.HTML)

	// The configured timeout bounds one command round trip in the protocol
	// client; here it has to cover the whole dial-and-send exchange.
	ctx, cancel := context.WithTimeout(ctx, 2*t.timeout)
	defer cancel()
	return client.DialAndSendWithContext(ctx, out)
}
