// internal/app/system/mailer/smtp.go
package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"time"
)

// SMTPConfig configures SMTPTransport.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string // empty disables AUTH
	Password string

	// ImplicitTLS wraps the connection in TLS before the greeting (port 465).
	// Otherwise STARTTLS is used when the server offers it.
	ImplicitTLS bool

	ConnectTimeout  time.Duration // TCP connect plus TLS handshake
	GreetingTimeout time.Duration // wait for the 220 banner
	SocketTimeout   time.Duration // idle ceiling for every later command

	LocalName string      // EHLO name, default "localhost"
	TLSConfig *tls.Config // optional; ServerName defaults to Host
}

// SMTPTransport delivers messages over SMTP, one connection per message.
type SMTPTransport struct {
	cfg    SMTPConfig
	dialer func(ctx context.Context, network, addr string) (net.Conn, error)
}

// NewSMTPTransport returns a transport for cfg. Zero timeouts default to
// 10s connect, 10s greeting and 15s socket.
func NewSMTPTransport(cfg SMTPConfig) *SMTPTransport {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.GreetingTimeout <= 0 {
		cfg.GreetingTimeout = 10 * time.Second
	}
	if cfg.SocketTimeout <= 0 {
		cfg.SocketTimeout = 15 * time.Second
	}
	if cfg.LocalName == "" {
		cfg.LocalName = "localhost"
	}
	d := &net.Dialer{Timeout: cfg.ConnectTimeout}
	return &SMTPTransport{cfg: cfg, dialer: d.DialContext}
}

func (t *SMTPTransport) tlsConfig() *tls.Config {
	if t.cfg.TLSConfig != nil {
		c := t.cfg.TLSConfig.Clone()
		if c.ServerName == "" {
			c.ServerName = t.cfg.Host
		}
		return c
	}
	return &tls.Config{ServerName: t.cfg.Host, MinVersion: tls.VersionTLS12}
}

// Deliver sends msg. Recipients refused at RCPT are reported in
// Result.Rejected; if none are accepted no DATA is sent.
func (t *SMTPTransport) Deliver(ctx context.Context, msg Message) (Result, error) {
	res := Result{MessageID: "<" + msg.ID + ">"}

	raw, err := buildMessage(msg)
	if err != nil {
		return res, fmt.Errorf("build message: %w", err)
	}

	addr := net.JoinHostPort(t.cfg.Host, strconv.Itoa(t.cfg.Port))
	conn, err := t.dialer(ctx, "tcp", addr)
	if err != nil {
		return res, fmt.Errorf("connect %s: %w", addr, err)
	}
	defer conn.Close()

	// Cancelling ctx unblocks any pending read or write.
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	if t.cfg.ImplicitTLS {
		_ = conn.SetDeadline(time.Now().Add(t.cfg.ConnectTimeout))
		tc := tls.Client(conn, t.tlsConfig())
		if err := tc.HandshakeContext(ctx); err != nil {
			return res, fmt.Errorf("tls handshake: %w", err)
		}
		conn = tc
	}

	_ = conn.SetDeadline(time.Now().Add(t.cfg.GreetingTimeout))
	c, err := smtp.NewClient(conn, t.cfg.Host)
	if err != nil {
		return res, fmt.Errorf("greeting: %w", err)
	}
	defer c.Close()

	touch := func() { _ = conn.SetDeadline(time.Now().Add(t.cfg.SocketTimeout)) }

	touch()
	if err := c.Hello(t.cfg.LocalName); err != nil {
		return res, fmt.Errorf("ehlo: %w", err)
	}

	if !t.cfg.ImplicitTLS {
		if ok, _ := c.Extension("STARTTLS"); ok {
			touch()
			if err := c.StartTLS(t.tlsConfig()); err != nil {
				return res, fmt.Errorf("starttls: %w", err)
			}
		}
	}

	if t.cfg.Username != "" {
		if ok, _ := c.Extension("AUTH"); !ok {
			return res, errors.New("server does not support AUTH")
		}
		touch()
		if err := c.Auth(smtp.PlainAuth("", t.cfg.Username, t.cfg.Password, t.cfg.Host)); err != nil {
			return res, fmt.Errorf("auth: %w", err)
		}
	}

	touch()
	if err := c.Mail(msg.From); err != nil {
		return res, fmt.Errorf("mail from: %w", err)
	}

	for _, rcpt := range msg.To {
		touch()
		if err := c.Rcpt(rcpt); err != nil {
			var pe *textproto.Error
			if errors.As(err, &pe) {
				res.Rejected = append(res.Rejected, rcpt)
				continue
			}
			return res, fmt.Errorf("rcpt to: %w", err)
		}
		res.Accepted = append(res.Accepted, rcpt)
	}
	if len(res.Accepted) == 0 {
		touch()
		_ = c.Reset()
		_ = c.Quit()
		return res, ErrAllRejected
	}

	touch()
	w, err := c.Data()
	if err != nil {
		return res, fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return res, fmt.Errorf("write body: %w", err)
	}
	touch()
	if err := w.Close(); err != nil {
		return res, fmt.Errorf("end data: %w", err)
	}

	touch()
	_ = c.Quit()
	return res, nil
}
