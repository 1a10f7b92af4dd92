package delivery

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/granforum/forum/models"
	"github.com/granforum/forum/render"
	"github.com/granforum/forum/webutil"
)

func newFastWhatsApp(url, secret string, attempts uint) *WhatsAppChannel {
	ch := NewWhatsAppChannel(nil, url, secret, attempts, discardLogger)
	ch.retryDelay = 2 * time.Millisecond
	return ch
}

func TestWhatsAppChannel_PostsSignedPayload(t *testing.T) {
	var (
		gotBody []byte
		gotSig  string
		gotCT   string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotSig = r.Header.Get(webutil.HeaderSignature)
		gotCT = r.Header.Get(webutil.HeaderContentType)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ch := newFastWhatsApp(srv.URL, "s3cret", 3)
	err := ch.Dispatch(context.Background(), []string{"+551100", "+551101"}, render.Message{Text: "Nova pergunta"})
	require.NoError(t, err)

	var payload whatsAppPayload
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	assert.Equal(t, []string{"+551100", "+551101"}, payload.Phones)
	assert.Equal(t, "Nova pergunta", payload.Text)
	assert.Equal(t, "application/json", gotCT)
	assert.True(t, webutil.VerifySignature("s3cret", gotBody, gotSig))
}

func TestWhatsAppChannel_UnsignedWithoutSecret(t *testing.T) {
	var gotSig string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get(webutil.HeaderSignature)
	}))
	defer srv.Close()

	require.NoError(t, newFastWhatsApp(srv.URL, "", 1).Dispatch(context.Background(), []string{"+551100"}, render.Message{Text: "x"}))
	assert.Empty(t, gotSig)
}

func TestWhatsAppChannel_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := newFastWhatsApp(srv.URL, "", 3).Dispatch(context.Background(), []string{"+551100"}, render.Message{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestWhatsAppChannel_GivesUpAfterAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := newFastWhatsApp(srv.URL, "", 2).Dispatch(context.Background(), []string{"+551100"}, render.Message{Text: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
	assert.Equal(t, int32(2), calls.Load())
}

func TestWhatsAppChannel_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad phones", http.StatusBadRequest)
	}))
	defer srv.Close()

	err := newFastWhatsApp(srv.URL, "", 3).Dispatch(context.Background(), []string{"+551100"}, render.Message{Text: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Equal(t, int32(1), calls.Load())
}

func TestWhatsAppChannel_ContactAndEnabled(t *testing.T) {
	ch := NewWhatsAppChannel(nil, "", "", 0, discardLogger)
	assert.False(t, ch.Enabled())
	assert.Equal(t, uint(defaultWebhookAttempts), ch.attempts)
	assert.Empty(t, ch.Contact(models.User{Email: "a@x.com"}))

	p := "+551100"
	assert.Equal(t, p, ch.Contact(models.User{Phone: &p}))
}
