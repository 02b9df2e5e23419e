// Package sendemail exposes the Notification Sender over HTTP for signed-in
// callers: POST /api/send-email.
package sendemail

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/dalemusser/bloodconnect/internal/app/system/auth"
	"github.com/dalemusser/bloodconnect/internal/app/system/mailer"
	"github.com/dalemusser/bloodconnect/internal/app/system/metrics"
	"github.com/dalemusser/bloodconnect/internal/app/system/timeouts"
	"github.com/dalemusser/bloodconnect/internal/domain/apperr"
	"go.uber.org/zap"
)

// maxBodyBytes bounds the request body. The html field alone may be 50,000
// characters of up to 4 bytes each, plus JSON escaping.
const maxBodyBytes = 512 << 10

type Handler struct {
	Sender  mailer.Sender
	Metrics *metrics.Recorder
	Log     *zap.Logger
}

func NewHandler(sender mailer.Sender, rec *metrics.Recorder, logger *zap.Logger) *Handler {
	return &Handler{Sender: sender, Metrics: rec, Log: logger}
}

type sendRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text"`
	ReplyTo string `json:"replyTo"`
}

type sendResponse struct {
	Success   bool     `json:"success"`
	MessageID string   `json:"messageId"`
	Accepted  []string `json:"accepted"`
	Rejected  []string `json:"rejected"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ServeSend handles POST /api/send-email.
//
//	200 {"success":true,"messageId":"<…>","accepted":[…],"rejected":[…]}
//	400 {"success":false,"error":"…"}  missing fields, bad "to", html too long
//	415 {"success":false,"error":"…"}  body is not JSON
//	500 {"success":false,"error":"…"}  transport failure
func (h *Handler) ServeSend(w http.ResponseWriter, r *http.Request) {
	// The route is outside CSRF protection; a JSON content type cannot be
	// sent cross-site without a CORS preflight.
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt != "application/json" {
		writeJSON(w, http.StatusUnsupportedMediaType, errorResponse{Error: "Content-Type must be application/json."})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var in sendRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Request body must be a JSON object."})
		return
	}

	e := mailer.Email{
		To:       in.To,
		Subject:  in.Subject,
		HTMLBody: in.HTML,
		TextBody: in.Text,
		ReplyTo:  in.ReplyTo,

		// The 50,000 cap is checked on the html as sent. Sanitizing can
		// expand it with entities.
		SanitizeHTML: true,
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Send())
	defer cancel()

	res, err := h.Sender.Send(ctx, e)
	var verr *apperr.ValidationError
	switch {
	case err == nil:
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Messages()})
		return
	default:
		h.Metrics.Notification(metrics.KindAPI, false)
		h.Log.Error("send-email failed",
			zap.String("to", e.To),
			zap.String("caller", callerID(r)),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to send email."})
		return
	}

	h.Metrics.Notification(metrics.KindAPI, true)
	h.Log.Info("send-email delivered",
		zap.String("message_id", res.MessageID),
		zap.String("caller", callerID(r)),
		zap.Int("accepted", len(res.Accepted)),
		zap.Int("rejected", len(res.Rejected)))

	rejected := res.Rejected
	if rejected == nil {
		rejected = []string{}
	}
	writeJSON(w, http.StatusOK, sendResponse{
		Success:   true,
		MessageID: res.MessageID,
		Accepted:  res.Accepted,
		Rejected:  rejected,
	})
}

func callerID(r *http.Request) string {
	if u, ok := auth.CurrentUser(r); ok {
		return u.ID
	}
	return ""
}
