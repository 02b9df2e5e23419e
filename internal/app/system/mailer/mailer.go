// internal/app/system/mailer/mailer.go
package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/bloodconnect/internal/app/system/htmlsanitize"
	"github.com/dalemusser/bloodconnect/internal/app/system/inputval"
	"github.com/dalemusser/bloodconnect/internal/domain/apperr"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxHTMLLength is the largest HTML body Send accepts, in characters.
// Longer bodies are rejected, never truncated.
const MaxHTMLLength = 50000

// ErrAllRejected is returned (wrapped as a transport error) when the server
// accepted the connection but refused every recipient.
var ErrAllRejected = errors.New("all recipients rejected")

// Email is one outbound message as callers describe it.
type Email struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string // defaults to Subject
	ReplyTo  string // dropped unless it is a valid address

	// SanitizeHTML runs HTMLBody through htmlsanitize after validation.
	// The length cap applies to the body as given, not the sanitized one.
	SanitizeHTML bool
}

// Result reports what the transport did with a message.
type Result struct {
	MessageID string   `json:"messageId"`
	Accepted  []string `json:"accepted"`
	Rejected  []string `json:"rejected"`
}

// Message is the envelope handed to a Transport.
type Message struct {
	ID       string // without angle brackets
	From     string
	FromName string
	To       []string
	ReplyTo  string
	Subject  string
	TextBody string
	HTMLBody string
	Date     time.Time
}

// Transport delivers one message. Implementations make exactly one delivery
// attempt and report per-recipient outcome.
type Transport interface {
	Deliver(ctx context.Context, msg Message) (Result, error)
}

// Sender is what features and the fan-out engine depend on.
type Sender interface {
	Send(ctx context.Context, e Email) (Result, error)
}

// Mailer validates messages and hands them to a Transport.
type Mailer struct {
	transport Transport
	from      string
	fromName  string
	log       *zap.Logger
	now       func() time.Time
}

// New builds a Mailer. from must be a valid address; there is no default.
func New(t Transport, from, fromName string, logger *zap.Logger) (*Mailer, error) {
	if t == nil {
		return nil, errors.New("mailer: transport is nil")
	}
	if !inputval.IsValidEmail(from) {
		return nil, fmt.Errorf("mailer: invalid from address %q", from)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mailer{
		transport: t,
		from:      from,
		fromName:  fromName,
		log:       logger,
		now:       time.Now,
	}, nil
}

// Validate checks e without sending it.
func Validate(e Email) error {
	var fes []apperr.FieldError
	if strings.TrimSpace(e.To) == "" {
		fes = append(fes, apperr.FieldError{Field: "to", Message: "Recipient is required."})
	} else if !inputval.IsValidEmail(strings.TrimSpace(e.To)) {
		fes = append(fes, apperr.FieldError{Field: "to", Message: "Recipient is not a valid email address."})
	}
	if strings.TrimSpace(e.Subject) == "" {
		fes = append(fes, apperr.FieldError{Field: "subject", Message: "Subject is required."})
	}
	if strings.TrimSpace(e.HTMLBody) == "" {
		fes = append(fes, apperr.FieldError{Field: "html", Message: "HTML body is required."})
	} else if len([]rune(e.HTMLBody)) > MaxHTMLLength {
		fes = append(fes, apperr.FieldError{
			Field:   "html",
			Message: fmt.Sprintf("HTML body exceeds %d characters.", MaxHTMLLength),
		})
	}
	if len(fes) > 0 {
		return apperr.NewValidationErrors(fes)
	}
	return nil
}

// Prepare validates e and, when SanitizeHTML is set, returns it with the
// sanitized body. Markup that sanitizes to nothing is a validation error.
func Prepare(e Email) (Email, error) {
	if err := Validate(e); err != nil {
		return Email{}, err
	}
	if !e.SanitizeHTML {
		return e, nil
	}
	e.HTMLBody = htmlsanitize.Sanitize(e.HTMLBody)
	e.SanitizeHTML = false
	if strings.TrimSpace(e.HTMLBody) == "" {
		return Email{}, apperr.NewValidationError("html", "HTML body has no content after removing unsafe markup.")
	}
	return e, nil
}

// Send validates e and makes one delivery attempt.
//
// Validation failures return *apperr.ValidationError before the transport is
// touched. Delivery failures, including every recipient being refused, match
// apperr.ErrTransport. A partially rejected send is a success; the refused
// addresses are in Result.Rejected.
func (m *Mailer) Send(ctx context.Context, e Email) (Result, error) {
	e, err := Prepare(e)
	if err != nil {
		return Result{}, err
	}

	to := strings.TrimSpace(e.To)
	text := e.TextBody
	if strings.TrimSpace(text) == "" {
		text = e.Subject
	}
	replyTo := strings.TrimSpace(e.ReplyTo)
	if replyTo != "" && !inputval.IsValidEmail(replyTo) {
		m.log.Debug("dropping invalid reply-to", zap.String("reply_to", replyTo))
		replyTo = ""
	}

	msg := Message{
		ID:       uuid.NewString() + "@" + domainOf(m.from),
		From:     m.from,
		FromName: m.fromName,
		To:       []string{to},
		ReplyTo:  replyTo,
		Subject:  e.Subject,
		TextBody: text,
		HTMLBody: e.HTMLBody,
		Date:     m.now(),
	}

	res, err := m.transport.Deliver(ctx, msg)
	if err != nil {
		if errors.Is(err, apperr.ErrTransport) {
			return res, err
		}
		return res, apperr.Transport("send email", err)
	}
	if res.MessageID == "" {
		res.MessageID = "<" + msg.ID + ">"
	}
	if len(res.Accepted) == 0 {
		return res, apperr.Transport("send email", ErrAllRejected)
	}
	return res, nil
}

func domainOf(addr string) string {
	if i := strings.LastIndexByte(addr, '@'); i >= 0 && i < len(addr)-1 {
		return addr[i+1:]
	}
	return "localhost"
}
