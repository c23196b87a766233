// Package mail delivers generated request documents over SMTP.
package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	gomail "github.com/wneessen/go-mail"
)

// ErrNotConfigured no SMTP host was configured.
var ErrNotConfigured = errors.New("smtp is not configured")

// Message one outgoing HTML email.
type Message struct {
	From    string
	To      []string
	Cc      []string
	Bcc     []string
	Subject string
	HTML    string
}

// Sender delivers a message and returns its Message-ID.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// Config SMTP settings.
type Config struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	From     string        `mapstructure:"from"`
	TLS      string        `mapstructure:"tls"` // mandatory, opportunistic, none
	Timeout  time.Duration `mapstructure:"timeout"`
}

// New returns an SMTP sender, or a disabled one when Host is empty.
func New(cfg Config) Sender {
	if cfg.Host == "" {
		return Disabled{}
	}
	return &SMTPSender{cfg: cfg}
}

// Disabled rejects every message with ErrNotConfigured.
type Disabled struct{}

func (Disabled) Send(context.Context, Message) (string, error) {
	return "", ErrNotConfigured
}

// SMTPSender dials the server for every message.
type SMTPSender struct {
	cfg Config
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) (string, error) {
	m, id, err := s.build(msg)
	if err != nil {
		return "", err
	}
	client, err := gomail.NewClient(s.cfg.Host, s.options()...)
	if err != nil {
		return "", fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return "", fmt.Errorf("smtp send: %w", err)
	}
	return id, nil
}

func (s *SMTPSender) options() []gomail.Option {
	opts := []gomail.Option{}
	if s.cfg.Port > 0 {
		opts = append(opts, gomail.WithPort(s.cfg.Port))
	}
	if s.cfg.Timeout > 0 {
		opts = append(opts, gomail.WithTimeout(s.cfg.Timeout))
	}
	switch s.cfg.TLS {
	case "mandatory":
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	case "none":
		opts = append(opts, gomail.WithTLSPolicy(gomail.NoTLS))
	default:
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSOpportunistic))
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.Username),
			gomail.WithPassword(s.cfg.Password),
		)
	}
	return opts
}

// build assembles the MIME message and its Message-ID.
func (s *SMTPSender) build(msg Message) (*gomail.Msg, string, error) {
	if len(msg.To) == 0 {
		return nil, "", fmt.Errorf("message has no recipient")
	}
	from := msg.From
	if from == "" {
		from = s.cfg.From
	}

	m := gomail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, "", fmt.Errorf("invalid from address %q: %w", from, err)
	}
	if err := m.To(msg.To...); err != nil {
		return nil, "", fmt.Errorf("invalid to address: %w", err)
	}
	if len(msg.Cc) > 0 {
		if err := m.Cc(msg.Cc...); err != nil {
			return nil, "", fmt.Errorf("invalid cc address: %w", err)
		}
	}
	if len(msg.Bcc) > 0 {
		if err := m.Bcc(msg.Bcc...); err != nil {
			return nil, "", fmt.Errorf("invalid bcc address: %w", err)
		}
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextHTML, msg.HTML)

	id := fmt.Sprintf("<%s@%s>", uuid.NewString(), domainOf(from))
	m.SetGenHeader(gomail.HeaderMessageID, id)
	m.SetDate()
	return m, id, nil
}

func domainOf(addr string) string {
	addr = strings.TrimSuffix(strings.TrimSpace(addr), ">")
	if i := strings.LastIndexByte(addr, '@'); i >= 0 && i < len(addr)-1 {
		return addr[i+1:]
	}
	return "localhost"
}
