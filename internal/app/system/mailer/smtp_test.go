package mailer

import (
	"bufio"
	"context"
	"errors"
	"mime"
	"net"
	"net/mail"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeSMTPServer speaks just enough SMTP for SMTPTransport. Recipients
// containing "reject" get a 550 at RCPT.
type fakeSMTPServer struct {
	ln      net.Listener
	silent  bool
	mu      sync.Mutex
	data    string
	gotRcpt []string
}

func startFakeSMTP(t *testing.T, silent bool) *fakeSMTPServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &fakeSMTPServer{ln: ln, silent: silent}
	go s.serve()
	t.Cleanup(func() { ln.Close() })
	return s
}

func (s *fakeSMTPServer) port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

func (s *fakeSMTPServer) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *fakeSMTPServer) handle(conn net.Conn) {
	defer conn.Close()
	if s.silent {
		time.Sleep(500 * time.Millisecond)
		return
	}
	r := bufio.NewReader(conn)
	write := func(line string) { _, _ = conn.Write([]byte(line + "\r\n")) }
	write("220 fake ESMTP")
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.ToUpper(strings.TrimSpace(line))
		switch {
		case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
			write("250 fake")
		case strings.HasPrefix(cmd, "MAIL FROM"):
			write("250 OK")
		case strings.HasPrefix(cmd, "RCPT TO"):
			s.mu.Lock()
			s.gotRcpt = append(s.gotRcpt, cmd)
			s.mu.Unlock()
			if strings.Contains(cmd, "REJECT") {
				write("550 no such user")
			} else {
				write("250 OK")
			}
		case cmd == "DATA":
			write("354 go ahead")
			var b strings.Builder
			for {
				l, err := r.ReadString('\n')
				if err != nil {
					return
				}
				if l == ".\r\n" {
					break
				}
				b.WriteString(l)
			}
			s.mu.Lock()
			s.data = b.String()
			s.mu.Unlock()
			write("250 queued")
		case cmd == "RSET":
			write("250 OK")
		case cmd == "QUIT":
			write("221 bye")
			return
		default:
			write("502 unknown")
		}
	}
}

func testTransport(port int, greeting time.Duration) *SMTPTransport {
	return NewSMTPTransport(SMTPConfig{
		Host:            "127.0.0.1",
		Port:            port,
		ConnectTimeout:  time.Second,
		GreetingTimeout: greeting,
		SocketTimeout:   time.Second,
	})
}

func testMessage(to ...string) Message {
	return Message{
		ID:       "abc@bloodconnect.example",
		From:     "alerts@bloodconnect.example",
		FromName: "NSS BloodConnect",
		To:       to,
		Subject:  "🚨 URGENT: Blood Donation Request - O- needed in Medak",
		TextBody: "call now",
		HTMLBody: "<p>call now</p>",
		Date:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestSMTPTransport_Delivers(t *testing.T) {
	srv := startFakeSMTP(t, false)
	tr := testTransport(srv.port(), time.Second)

	res, err := tr.Deliver(context.Background(), testMessage("donor@example.com"))
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if res.MessageID != "<abc@bloodconnect.example>" {
		t.Errorf("MessageID: got %q", res.MessageID)
	}
	if len(res.Accepted) != 1 || len(res.Rejected) != 0 {
		t.Errorf("Accepted=%v Rejected=%v", res.Accepted, res.Rejected)
	}

	srv.mu.Lock()
	data := srv.data
	srv.mu.Unlock()
	m, err := mail.ReadMessage(strings.NewReader(data))
	if err != nil {
		t.Fatalf("parse delivered message: %v", err)
	}
	if m.Header.Get("X-Priority") != "1" || m.Header.Get("Importance") != "High" {
		t.Error("expected priority headers")
	}
	subj, err := new(mime.WordDecoder).DecodeHeader(m.Header.Get("Subject"))
	if err != nil || !strings.Contains(subj, "O- needed in Medak") {
		t.Errorf("Subject: got %q (%v)", subj, err)
	}
}

func TestSMTPTransport_PartialReject(t *testing.T) {
	srv := startFakeSMTP(t, false)
	tr := testTransport(srv.port(), time.Second)

	res, err := tr.Deliver(context.Background(), testMessage("ok@example.com", "reject@example.com"))
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if len(res.Accepted) != 1 || res.Accepted[0] != "ok@example.com" {
		t.Errorf("Accepted: %v", res.Accepted)
	}
	if len(res.Rejected) != 1 || res.Rejected[0] != "reject@example.com" {
		t.Errorf("Rejected: %v", res.Rejected)
	}
}

func TestSMTPTransport_AllRejected(t *testing.T) {
	srv := startFakeSMTP(t, false)
	tr := testTransport(srv.port(), time.Second)

	_, err := tr.Deliver(context.Background(), testMessage("reject@example.com"))
	if !errors.Is(err, ErrAllRejected) {
		t.Fatalf("expected ErrAllRejected, got %v", err)
	}
}

func TestSMTPTransport_GreetingTimeout(t *testing.T) {
	srv := startFakeSMTP(t, true)
	tr := testTransport(srv.port(), 50*time.Millisecond)

	start := time.Now()
	_, err := tr.Deliver(context.Background(), testMessage("donor@example.com"))
	if err == nil {
		t.Fatal("expected greeting timeout")
	}
	if time.Since(start) > 400*time.Millisecond {
		t.Errorf("greeting timeout not honored, took %v", time.Since(start))
	}
}

func TestSMTPTransport_ConnectFailure(t *testing.T) {
	ln, _ := net.Listen("tcp", "127.0.0.1:0")
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	tr := testTransport(port, time.Second)
	if _, err := tr.Deliver(context.Background(), testMessage("donor@example.com")); err == nil {
		t.Fatal("expected connect error")
	}
}
