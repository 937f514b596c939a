// internal/smtp/client.go
//
// Minimal SMTP submission client.
//
// Context
// -------
// Notification mail is the one outbound dependency of the service, and
// operators point it at whatever relay they have, so the client speaks
// the plain protocol directly instead of leaning on a library's feature
// matrix.  It supports the three encryption modes the settings screen
// offers: "none" (cleartext), "ssl" (implicit TLS on connect), and
// "tls" (STARTTLS upgrade after EHLO).
//
// Notes
// -----
// Every read waits for a complete reply, accumulating continuation
// lines ("250-...") until the final "250 " form.  Any unexpected code
// aborts the session; there is no retry at this layer.  A single
// deadline covers each command round trip.
package smtp

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"mime"
	"net"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout bounds the dial and each command round trip.
const DefaultTimeout = 15 * time.Second

// Encryption modes accepted by Config.
const (
	EncryptionNone = "none"
	EncryptionSSL  = "ssl"
	EncryptionTLS  = "tls"
)

// Config describes one relay.
type Config struct {
	Host       string
	Port       int
	Encryption string // none | ssl | tls
	Username   string
	Password   string
	LocalName  string        // EHLO/HELO argument, defaults to "localhost"
	Timeout    time.Duration // defaults to DefaultTimeout
}

// Message is one outbound email.  HTML is the body; headers are built
// here so callers never touch wire format.
type Message struct {
	From     string
	FromName string
	To       string
	ReplyTo  string
	Subject  string
	HTML     string
}

// Client submits messages over a fresh connection per call.
type Client struct {
	cfg Config
}

// New returns a Client for cfg, filling in defaults.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.LocalName == "" {
		cfg.LocalName = "localhost"
	}
	return &Client{cfg: cfg}
}

// session wraps one live connection.
type session struct {
	conn    net.Conn
	r       *bufio.Reader
	timeout time.Duration
}

// Send drives a full submission: connect, greet, optionally upgrade and
// authenticate, then transfer the message.  The connection is closed
// before returning regardless of outcome.
func (c *Client) Send(ctx context.Context, msg Message) error {
	addr := net.JoinHostPort(c.cfg.Host, strconv.Itoa(c.cfg.Port))

	d := net.Dialer{Timeout: c.cfg.Timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("smtp: connect %s: %w", addr, err)
	}
	if c.cfg.Encryption == EncryptionSSL {
		tc := tls.Client(conn, &tls.Config{ServerName: c.cfg.Host})
		if err := tc.HandshakeContext(ctx); err != nil {
			conn.Close()
			return fmt.Errorf("smtp: tls handshake: %w", err)
		}
		conn = tc
	}

	s := &session{conn: conn, r: bufio.NewReader(conn), timeout: c.cfg.Timeout}
	defer conn.Close()

	if _, err := s.expect(220); err != nil {
		return fmt.Errorf("smtp: greeting: %w", err)
	}
	if err := c.hello(s); err != nil {
		return err
	}
	if c.cfg.Encryption == EncryptionTLS {
		if _, err := s.cmd(220, "STARTTLS"); err != nil {
			return fmt.Errorf("smtp: starttls: %w", err)
		}
		tc := tls.Client(conn, &tls.Config{ServerName: c.cfg.Host})
		if err := tc.HandshakeContext(ctx); err != nil {
			return fmt.Errorf("smtp: tls upgrade: %w", err)
		}
		s.conn = tc
		s.r = bufio.NewReader(tc)
		if _, err := s.cmd(250, "EHLO %s", c.cfg.LocalName); err != nil {
			return fmt.Errorf("smtp: ehlo after starttls: %w", err)
		}
	}
	if c.cfg.Username != "" {
		if err := c.auth(s); err != nil {
			return err
		}
	}

	if _, err := s.cmd(250, "MAIL FROM: <%s>", msg.From); err != nil {
		return fmt.Errorf("smtp: mail from: %w", err)
	}
	code, reply, err := s.cmdAny("RCPT TO: <%s>", msg.To)
	if err != nil {
		return fmt.Errorf("smtp: rcpt to: %w", err)
	}
	if code != 250 && code != 251 {
		return fmt.Errorf("smtp: rcpt to rejected: %s", strings.TrimSpace(reply))
	}
	if _, err := s.cmd(354, "DATA"); err != nil {
		return fmt.Errorf("smtp: data: %w", err)
	}

	if err := s.write(buildData(msg) + "\r\n.\r\n"); err != nil {
		return fmt.Errorf("smtp: body: %w", err)
	}
	if _, err := s.expect(250); err != nil {
		return fmt.Errorf("smtp: message not accepted: %w", err)
	}

	// Best effort; the message is already committed.
	_, _, _ = s.cmdAny("QUIT")
	return nil
}

// hello tries EHLO and downgrades to HELO for old relays.
func (c *Client) hello(s *session) error {
	if _, err := s.cmd(250, "EHLO %s", c.cfg.LocalName); err == nil {
		return nil
	}
	if _, err := s.cmd(250, "HELO %s", c.cfg.LocalName); err != nil {
		return fmt.Errorf("smtp: ehlo/helo: %w", err)
	}
	return nil
}

// auth performs AUTH LOGIN with base64 username and password rounds.
func (c *Client) auth(s *session) error {
	if _, err := s.cmd(334, "AUTH LOGIN"); err != nil {
		return fmt.Errorf("smtp: auth login: %w", err)
	}
	if _, err := s.cmd(334, "%s", base64.StdEncoding.EncodeToString([]byte(c.cfg.Username))); err != nil {
		return fmt.Errorf("smtp: username rejected: %w", err)
	}
	if _, err := s.cmd(235, "%s", base64.StdEncoding.EncodeToString([]byte(c.cfg.Password))); err != nil {
		return fmt.Errorf("smtp: password rejected: %w", err)
	}
	return nil
}

/*──────────────────────────── wire helpers ───────────────────────────*/

func (s *session) write(data string) error {
	if err := s.conn.SetDeadline(time.Now().Add(s.timeout)); err != nil {
		return err
	}
	_, err := s.conn.Write([]byte(data))
	return err
}

// readReply accumulates one full reply, including "nnn-" continuation
// lines, and returns the code of the terminating "nnn " line.
func (s *session) readReply() (int, string, error) {
	if err := s.conn.SetDeadline(time.Now().Add(s.timeout)); err != nil {
		return 0, "", err
	}
	var b strings.Builder
	for {
		line, err := s.r.ReadString('\n')
		b.WriteString(line)
		if err != nil {
			return 0, b.String(), err
		}
		if len(line) >= 4 && line[3] == ' ' {
			code, err := strconv.Atoi(line[:3])
			if err != nil {
				return 0, b.String(), fmt.Errorf("malformed reply %q", strings.TrimSpace(line))
			}
			return code, b.String(), nil
		}
		if len(line) < 4 || line[3] != '-' {
			return 0, b.String(), fmt.Errorf("malformed reply %q", strings.TrimSpace(line))
		}
	}
}

// cmdAny sends a command and returns whatever reply comes back.
func (s *session) cmdAny(format string, args ...any) (int, string, error) {
	if err := s.write(fmt.Sprintf(format, args...) + "\r\n"); err != nil {
		return 0, "", err
	}
	return s.readReply()
}

// cmd sends a command and requires the given reply code.
func (s *session) cmd(want int, format string, args ...any) (string, error) {
	code, reply, err := s.cmdAny(format, args...)
	if err != nil {
		return reply, err
	}
	if code != want {
		return reply, fmt.Errorf("expected %d, got %s", want, strings.TrimSpace(reply))
	}
	return reply, nil
}

// expect reads a reply without sending anything first.
func (s *session) expect(want int) (string, error) {
	code, reply, err := s.readReply()
	if err != nil {
		return reply, err
	}
	if code != want {
		return reply, fmt.Errorf("expected %d, got %s", want, strings.TrimSpace(reply))
	}
	return reply, nil
}

/*──────────────────────────── data section ───────────────────────────*/

// buildData renders headers plus body, dot-stuffed for the DATA phase.
func buildData(msg Message) string {
	enc := mime.QEncoding

	from := "<" + msg.From + ">"
	if msg.FromName != "" {
		from = enc.Encode("UTF-8", msg.FromName) + " " + from
	}

	headers := []string{
		"MIME-Version: 1.0",
		`Content-Type: text/html; charset=UTF-8`,
		"Content-Transfer-Encoding: 8bit",
		"From: " + from,
		"To: <" + msg.To + ">",
	}
	if msg.ReplyTo != "" {
		headers = append(headers, "Reply-To: <"+msg.ReplyTo+">")
	}
	headers = append(headers,
		"Subject: "+enc.Encode("UTF-8", msg.Subject),
		"Date: "+time.Now().Format(time.RFC1123Z),
		"X-Mailer: NameDeal",
	)

	data := strings.Join(headers, "\r\n") + "\r\n\r\n" + msg.HTML
	// A body line consisting of a single dot would end the DATA phase
	// early, so every leading dot gets doubled.
	data = strings.ReplaceAll(data, "\r\n.", "\r\n..")
	return data
}
