// internal/app/system/mailer/message.go
package mailer

import (
	"bytes"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"strings"
	"time"
)

// buildMessage renders msg as an RFC 5322 multipart/alternative message
// with high-priority headers.
func buildMessage(msg Message) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	from := mail.Address{Name: msg.FromName, Address: msg.From}
	date := msg.Date
	if date.IsZero() {
		date = time.Now()
	}

	var hdr bytes.Buffer
	writeHeader(&hdr, "From", from.String())
	writeHeader(&hdr, "To", strings.Join(msg.To, ", "))
	if msg.ReplyTo != "" {
		writeHeader(&hdr, "Reply-To", msg.ReplyTo)
	}
	writeHeader(&hdr, "Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	writeHeader(&hdr, "Date", date.Format(time.RFC1123Z))
	writeHeader(&hdr, "Message-ID", "<"+msg.ID+">")
	writeHeader(&hdr, "MIME-Version", "1.0")
	writeHeader(&hdr, "X-Priority", "1")
	writeHeader(&hdr, "X-MSMail-Priority", "High")
	writeHeader(&hdr, "Importance", "High")
	writeHeader(&hdr, "Content-Type", fmt.Sprintf("multipart/alternative; boundary=%q", mw.Boundary()))
	hdr.WriteString("\r\n")

	if err := writePart(mw, "text/plain; charset=UTF-8", msg.TextBody); err != nil {
		return nil, err
	}
	if err := writePart(mw, "text/html; charset=UTF-8", msg.HTMLBody); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	out := make([]byte, 0, hdr.Len()+buf.Len())
	out = append(out, hdr.Bytes()...)
	out = append(out, buf.Bytes()...)
	return out, nil
}

func writeHeader(b *bytes.Buffer, k, v string) {
	// No CR or LF may reach a header value.
	v = strings.NewReplacer("\r", "", "\n", "").Replace(v)
	b.WriteString(k)
	b.WriteString(": ")
	b.WriteString(v)
	b.WriteString("\r\n")
}

func writePart(mw *multipart.Writer, contentType, body string) error {
	pw, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {contentType},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return err
	}
	qp := quotedprintable.NewWriter(pw)
	if _, err := qp.Write([]byte(body)); err != nil {
		return err
	}
	return qp.Close()
}
