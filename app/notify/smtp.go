package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"time"
)

const (
	portSSL      = 465
	portSTARTTLS = 587
)

type SMTPSender struct {
	settings Settings
}

func NewSMTPSender(settings Settings) *SMTPSender {
	if settings.Timeout <= 0 {
		settings.Timeout = 10 * time.Second
	}
	return &SMTPSender{settings: settings}
}

// Send tries implicit TLS on 465 first and STARTTLS on 587 after it fails,
// unless a port is configured.
func (s *SMTPSender) Send(ctx context.Context, from, to string, msg []byte) error {
	switch s.settings.Port {
	case 0:
		err := s.send(ctx, portSSL, from, to, msg)
		if err == nil {
			return nil
		}
		slog.Warn("SSL connection failed, retrying with STARTTLS", "server", s.settings.Server, "error", err)
		return s.send(ctx, portSTARTTLS, from, to, msg)
	default:
		return s.send(ctx, s.settings.Port, from, to, msg)
	}
}

func (s *SMTPSender) send(ctx context.Context, port int, from, to string, msg []byte) error {
	addr := net.JoinHostPort(s.settings.Server, strconv.Itoa(port))
	tlsConfig := &tls.Config{ServerName: s.settings.Server}

	ctx, cancel := context.WithTimeout(ctx, s.settings.Timeout)
	defer cancel()

	dialer := &net.Dialer{Timeout: s.settings.Timeout}
	var conn net.Conn
	var err error
	if port == portSSL {
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: tlsConfig}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.settings.Server)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to start SMTP session: %w", err)
	}
	defer client.Close()

	if port != portSSL {
		if ok, _ := client.Extension("STARTTLS"); !ok {
			return errors.New("server does not support STARTTLS")
		}
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("STARTTLS failed: %w", err)
		}
	}

	auth := smtp.PlainAuth("", s.settings.User, s.settings.Password, s.settings.Server)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("MAIL FROM rejected: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("RCPT TO rejected: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA rejected: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		w.Close()
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("message rejected: %w", err)
	}

	return client.Quit()
}
