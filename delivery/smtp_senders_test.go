package delivery

import (
	"context"
	"net"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/granforum/forum/render"
)

// silentSMTPServer accepts connections and never sends the greeting.
func silentSMTPServer(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var (
		mu    sync.Mutex
		conns []net.Conn
	)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		_ = ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			_ = c.Close()
		}
	})
	return ln.Addr().(*net.TCPAddr).Port
}

type receivedMail struct {
	from  string
	rcpts []string
	data  string
}

// fakeSMTPServer speaks just enough SMTP for one plain session and reports
// the message it received.
func fakeSMTPServer(t *testing.T) (int, <-chan receivedMail) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	got := make(chan receivedMail, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		tp := textproto.NewConn(conn)

		var mail receivedMail
		_ = tp.PrintfLine("220 fake.test ESMTP")
		for {
			line, err := tp.ReadLine()
			if err != nil {
				return
			}
			cmd := strings.ToUpper(line)
			switch {
			case strings.HasPrefix(cmd, "EHLO"):
				_ = tp.PrintfLine("250-fake.test")
				_ = tp.PrintfLine("250 8BITMIME")
			case strings.HasPrefix(cmd, "HELO"):
				_ = tp.PrintfLine("250 fake.test")
			case strings.HasPrefix(cmd, "MAIL FROM:"):
				mail.from = angleAddr(line)
				_ = tp.PrintfLine("250 OK")
			case strings.HasPrefix(cmd, "RCPT TO:"):
				mail.rcpts = append(mail.rcpts, angleAddr(line))
				_ = tp.PrintfLine("250 OK")
			case cmd == "DATA":
				_ = tp.PrintfLine("354 End data with <CR><LF>.<CR><LF>")
				data, err := tp.ReadDotBytes()
				if err != nil {
					return
				}
				mail.data = string(data)
				_ = tp.PrintfLine("250 queued")
			case cmd == "QUIT":
				_ = tp.PrintfLine("221 bye")
				got <- mail
				return
			default:
				_ = tp.PrintfLine("502 not implemented")
			}
		}
	}()
	return ln.Addr().(*net.TCPAddr).Port, got
}

func angleAddr(line string) string {
	start, end := strings.Index(line, "<"), strings.Index(line, ">")
	if start < 0 || end < start {
		return ""
	}
	return line[start+1 : end]
}

var hangMsg = render.Message{Subject: "[Channels] Nova resposta", HTML: "<p>oi</p>", Text: "oi"}

func dispatchWithin(ctx context.Context, t *testing.T, ch *EmailChannel, limit time.Duration) error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- ch.Dispatch(ctx, []string{"a@x.com"}, hangMsg) }()
	select {
	case err := <-done:
		return err
	case <-time.After(limit):
		t.Fatalf("Dispatch still blocked after %s", limit)
		return nil
	}
}

func TestSMTPSender_StalledServerHonoursDeadline(t *testing.T) {
	port := silentSMTPServer(t)
	ch := NewEmailChannel(NewSMTPSender(SMTPConfig{Host: "127.0.0.1", Port: port}, discardLogger), "no-reply@forum.local", "", discardLogger)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := dispatchWithin(ctx, t, ch, 3*time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestSMTPSender_StalledServerHonoursCancel(t *testing.T) {
	port := silentSMTPServer(t)
	ch := NewEmailChannel(NewSMTPSender(SMTPConfig{Host: "127.0.0.1", Port: port}, discardLogger), "no-reply@forum.local", "", discardLogger)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	err := dispatchWithin(ctx, t, ch, 3*time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSMTPSender_DeliversPlainSession(t *testing.T) {
	port, got := fakeSMTPServer(t)
	ch := NewEmailChannel(NewSMTPSender(SMTPConfig{Host: "127.0.0.1", Port: port}, discardLogger), "no-reply@forum.local", "Gran Forum", discardLogger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, ch.Dispatch(ctx, []string{"a@x.com", "b@x.com"}, hangMsg))

	select {
	case mail := <-got:
		assert.Equal(t, "no-reply@forum.local", mail.from)
		assert.Equal(t, []string{"a@x.com", "b@x.com"}, mail.rcpts)
		assert.Contains(t, mail.data, "Subject: [Channels] Nova resposta")
		assert.NotContains(t, mail.data, "a@x.com")
	case <-time.After(5 * time.Second):
		t.Fatal("fake SMTP server received nothing")
	}
}
