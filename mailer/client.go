// Package mailer delivers password reset emails over SMTP.
package mailer

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
)

const resetSubject = "Password Reset Request"

const resetBody = `Hi,

You requested a password reset. Use the token below to reset your password:

%s

If you did not request this, please ignore this email.

Thanks,
Your Team
`

// Client sends reset emails through a configured SMTP server. Safe for
// concurrent use; each send opens its own connection.
type Client struct {
	config Config
	auth   smtp.Auth
}

// New validates the config and returns an SMTP client
func New(cfg Config) (*Client, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp host is required", errors.CategoryBadInput)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, errors.New("smtp port must be between 1 and 65535", errors.CategoryBadInput)
	}
	if cfg.TLSMode != "tls" && cfg.TLSMode != "starttls" && cfg.TLSMode != "plain" {
		return nil, errors.New("smtp tls mode must be tls, starttls, or plain", errors.CategoryBadInput)
	}
	if cfg.SenderEmail == "" {
		return nil, errors.New("smtp sender email is required", errors.CategoryBadInput)
	}

	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	return &Client{
		config: cfg,
		auth:   auth,
	}, nil
}

// SendResetEmail mails the reset token to the given address
func (c *Client) SendResetEmail(email, token string) error {
	message := c.buildMessage(email, resetSubject, fmt.Sprintf(resetBody, token))

	addr := net.JoinHostPort(c.config.Host, strconv.Itoa(c.config.Port))

	var err error
	switch c.config.TLSMode {
	case "tls":
		err = c.sendWithTLS(addr, email, message)
	case "starttls":
		err = c.sendWithSTARTTLS(addr, email, message)
	case "plain":
		err = c.sendPlain(addr, email, message)
	}

	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to send reset email")
	}

	return nil
}

func (c *Client) buildMessage(to, subject, body string) []byte {
	var msg strings.Builder
	msg.WriteString("From: " + c.config.SenderEmail + "\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)
	return []byte(msg.String())
}

func (c *Client) sendWithTLS(addr, to string, message []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: c.config.Host})
	if err != nil {
		return fmt.Errorf("failed to connect with TLS: %w", err)
	}
	defer func() { _ = conn.Close() }()

	client, err := smtp.NewClient(conn, c.config.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer func() { _ = client.Close() }()

	return c.transact(client, to, message)
}

func (c *Client) sendWithSTARTTLS(addr, to string, message []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer func() { _ = client.Close() }()

	if err := client.StartTLS(&tls.Config{ServerName: c.config.Host}); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	return c.transact(client, to, message)
}

func (c *Client) sendPlain(addr, to string, message []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer func() { _ = client.Close() }()

	return c.transact(client, to, message)
}

func (c *Client) transact(client *smtp.Client, to string, message []byte) error {
	if c.auth != nil {
		if err := client.Auth(c.auth); err != nil {
			return fmt.Errorf("authentication failed: %w", err)
		}
	}

	if err := client.Mail(c.config.SenderEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}

	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data writer: %w", err)
	}

	if _, err := writer.Write(message); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write message: %w", err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	// some servers drop the connection right after DATA, the message is
	// already accepted at this point
	_ = client.Quit()

	return nil
}
