package settings

// Encryption modes accepted for the SMTP connection.
const (
	EncryptionNone = "none"
	EncryptionSSL  = "ssl" // implicit TLS from the first byte
	EncryptionTLS  = "tls" // STARTTLS upgrade
)

// Email is the singleton outbound-mail document.  SMTPHost empty means
// outbound mail is unconfigured and dispatch fails fast; both delivery
// paths need a relay host.
type Email struct {
	FromName       string `json:"from_name"`
	FromEmail      string `json:"from_email"`
	DefaultToEmail string `json:"default_to_email"`
	SMTPHost       string `json:"smtp_host"`
	SMTPPort       int    `json:"smtp_port"`
	SMTPEncryption string `json:"smtp_encryption"`
	SMTPUsername   string `json:"smtp_username"`
	SMTPPassword   string `json:"smtp_password"`
}

// ValidEncryption reports whether mode is one of none, ssl, or tls.
func ValidEncryption(mode string) bool {
	switch mode {
	case EncryptionNone, EncryptionSSL, EncryptionTLS:
		return true
	}
	return false
}

// Email returns the current document with port and encryption defaults
// applied (587/tls, the most common submission setup).
func (s *Store) Email() (Email, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out Email
	if err := s.readJSON(emailFile, &out); err != nil {
		return out, err
	}
	if out.SMTPPort == 0 {
		out.SMTPPort = 587
	}
	if out.SMTPEncryption == "" {
		out.SMTPEncryption = EncryptionTLS
	}
	return out, nil
}

// SaveEmail replaces the document.
func (s *Store) SaveEmail(email Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeJSON(emailFile, email)
}
