// internal/verification/service.go
//
// One-time email verification codes for the contact form.
//
// Context
// -------
// Codes live one per address as small JSON files keyed by the SHA-256 of
// the lowercased email, so no database table is involved and stale state
// ages out on its own.  A code is valid for five minutes, a resend is
// allowed after one minute, and a verified flag on the record is what
// the contact endpoint checks before accepting a submission.
//
// Notes
// -----
// The clock is a field so tests can move time without sleeping.  Expired
// files are swept opportunistically on roughly one send in ten.
package verification

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	mrand "math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/gentpan/NameDeal/internal/mailer"
)

const (
	// CodeTTL is how long a code stays redeemable.
	CodeTTL = 300 * time.Second
	// ResendInterval is the cooldown between sends to one address.
	ResendInterval = 60 * time.Second

	sweepOneIn = 10
)

var validate = validator.New()

// Sender delivers a rendered code email.  *mailer.Mailer satisfies it.
type Sender interface {
	VerificationEmail(ctx context.Context, b mailer.Branding, to, code string) mailer.Result
}

// record is the on-disk document for one address.
type record struct {
	Email     string `json:"email"`
	Code      string `json:"code"`
	CreatedAt int64  `json:"created_at"`
	Verified  bool   `json:"verified"`
}

// SendResult extends the basic outcome with the timer hints the front
// end uses to drive its countdowns.
type SendResult struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	ExpiresIn   int    `json:"expires_in,omitempty"`
	ResendAfter int    `json:"resend_after,omitempty"`
}

// VerifyResult is the outcome of a code check.
type VerifyResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Service issues and checks codes.
type Service struct {
	dir    string
	sender Sender
	now    func() time.Time
}

// New ensures the code directory exists under dataDir.
func New(dataDir string, sender Sender) (*Service, error) {
	dir := filepath.Join(dataDir, "verification_codes")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("verification: %w", err)
	}
	return &Service{dir: dir, sender: sender, now: time.Now}, nil
}

func (s *Service) fileFor(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:])+".json")
}

func (s *Service) read(path string) (*record, bool) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, false
	}
	return &rec, true
}

func (s *Service) write(path string, rec *record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

func (s *Service) expired(rec *record) bool {
	return s.now().Unix()-rec.CreatedAt > int64(CodeTTL/time.Second)
}

// generateCode returns a zero-padded four-digit code from crypto/rand.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}

// Send issues a fresh code for email and dispatches it.  A send inside
// the cooldown window is rejected with the seconds remaining.
func (s *Service) Send(ctx context.Context, b mailer.Branding, email string) SendResult {
	if err := validate.Var(email, "required,email"); err != nil {
		return SendResult{Success: false, Message: "Invalid email address."}
	}

	if mrand.Intn(sweepOneIn) == 0 {
		s.sweep()
	}

	path := s.fileFor(email)
	if rec, ok := s.read(path); ok && !s.expired(rec) {
		elapsed := s.now().Unix() - rec.CreatedAt
		left := int(ResendInterval/time.Second) - int(elapsed)
		if left > 0 {
			return SendResult{
				Success:     false,
				Message:     fmt.Sprintf("A code was already sent. Try again in %d seconds.", left),
				ResendAfter: left,
			}
		}
	}

	code, err := generateCode()
	if err != nil {
		zap.L().Error("code generation failed", zap.Error(err))
		return SendResult{Success: false, Message: "Internal error generating the code."}
	}
	rec := &record{
		Email:     email,
		Code:      code,
		CreatedAt: s.now().Unix(),
	}
	if err := s.write(path, rec); err != nil {
		zap.L().Error("code record write failed", zap.Error(err))
		return SendResult{Success: false, Message: "Internal error storing the code."}
	}

	res := s.sender.VerificationEmail(ctx, b, email, code)
	if !res.Success {
		return SendResult{Success: false, Message: "Could not send the verification code: " + res.Message}
	}
	return SendResult{
		Success:     true,
		Message:     "A verification code has been sent to your email.",
		ExpiresIn:   int(CodeTTL / time.Second),
		ResendAfter: int(ResendInterval / time.Second),
	}
}

// Verify redeems a code.  A wrong code leaves the record untouched so
// the customer can retry within the TTL.
func (s *Service) Verify(email, code string) VerifyResult {
	path := s.fileFor(email)
	rec, ok := s.read(path)
	if !ok {
		return VerifyResult{Success: false, Message: "The code does not exist or has expired."}
	}
	if s.expired(rec) {
		_ = os.Remove(path)
		return VerifyResult{Success: false, Message: "The code has expired. Request a new one."}
	}
	if rec.Verified {
		return VerifyResult{Success: false, Message: "The code has already been used."}
	}
	if rec.Code != code {
		return VerifyResult{Success: false, Message: "Incorrect verification code."}
	}
	rec.Verified = true
	if err := s.write(path, rec); err != nil {
		zap.L().Error("code record update failed", zap.Error(err))
		return VerifyResult{Success: false, Message: "Internal error updating the code."}
	}
	return VerifyResult{Success: true, Message: "Email verified."}
}

// IsVerified reports whether email holds a live, redeemed code.  The
// contact endpoint gates submissions on this.
func (s *Service) IsVerified(email string) bool {
	rec, ok := s.read(s.fileFor(email))
	if !ok {
		return false
	}
	if s.expired(rec) {
		return false
	}
	return rec.Verified
}

// sweep removes expired record files.
func (s *Service) sweep() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		rec, ok := s.read(path)
		if !ok || s.expired(rec) {
			_ = os.Remove(path)
		}
	}
}
