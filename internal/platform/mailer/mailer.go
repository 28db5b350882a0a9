// Copyright (c) 2026 Stocktrail. All rights reserved.
// Author: dev@stocktrail.io

// Package mailer delivers transactional email for the Stocktrail
// application: verification codes, password-reset codes and email-change
// confirmations.
//
// # Architecture
//
// This package is part of the Infrastructure layer. The account lifecycle
// services depend on a small Notifier interface they define themselves; the
// SMTP implementation here satisfies it. Outbound sends are throttled with a
// token bucket so a burst of signups cannot trip the provider's rate limits.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"

	"golang.org/x/time/rate"
)

// Outbound throttle: sustained 5 mails/second with a burst of 10. SMTP
// providers commonly enforce limits in this range for transactional tiers.
const (
	sendRate  = rate.Limit(5)
	sendBurst = 10
)

// SMTPMailer sends email through a single SMTP relay using PLAIN auth over
// STARTTLS (the default for port 587).
type SMTPMailer struct {
	addr    string
	auth    smtp.Auth
	from    string
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewSMTP creates a mailer bound to the given relay.
//
// # Parameters
//   - host, port: SMTP relay endpoint.
//   - username, password: PLAIN credentials; empty username disables auth
//     (useful against a local mailcatcher in development).
//   - from: RFC 5322 From header value.
func NewSMTP(host, port, username, password, from string, logger *slog.Logger) *SMTPMailer {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	return &SMTPMailer{
		addr:    host + ":" + port,
		auth:    auth,
		from:    from,
		limiter: rate.NewLimiter(sendRate, sendBurst),
		logger:  logger,
	}
}

// Send delivers a plain-text message to a single recipient. It blocks until
// the throttle grants a slot or ctx is done.
func (m *SMTPMailer) Send(ctx context.Context, to string, subject string, body string) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("mailer_throttle_wait_failed: %w", err)
	}

	message := buildMessage(m.from, to, subject, body)

	if err := smtp.SendMail(m.addr, m.auth, envelopeAddress(m.from), []string{to}, message); err != nil {
		m.logger.Error("mailer_send_failed",
			slog.String("to", to),
			slog.String("subject", subject),
			slog.Any("error", err),
		)
		return fmt.Errorf("mailer_send_failed: %w", err)
	}

	m.logger.Info("mailer_sent", slog.String("to", to), slog.String("subject", subject))
	return nil
}

// Ping dials the relay to confirm it is reachable. Used by the readiness
// probe; it does not authenticate or send anything.
func (m *SMTPMailer) Ping(ctx context.Context) error {
	dialer := net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", m.addr)
	if err != nil {
		return fmt.Errorf("mailer_ping_failed: %w", err)
	}
	return conn.Close()
}

// buildMessage assembles a minimal RFC 5322 plain-text message.
func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return []byte(b.String())
}

// envelopeAddress extracts the bare address from a "Name <addr>" From value
// for use as the SMTP envelope sender.
func envelopeAddress(from string) string {
	start := strings.LastIndex(from, "<")
	end := strings.LastIndex(from, ">")
	if start >= 0 && end > start {
		return from[start+1 : end]
	}
	return from
}
