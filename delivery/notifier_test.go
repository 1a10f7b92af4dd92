package delivery

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/granforum/forum/models"
	"github.com/granforum/forum/render"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeSubscribers struct {
	byChannel map[string][]models.Subscriber
	err       error
	calls     []string
}

func (f *fakeSubscribers) GetOptedInSubscribers(_ context.Context, _ string, channel string) ([]models.Subscriber, error) {
	f.calls = append(f.calls, channel)
	if f.err != nil {
		return nil, f.err
	}
	return f.byChannel[channel], nil
}

type fakeAttempts struct {
	attempts []models.NotificationAttempt
}

func (f *fakeAttempts) CreateAttempt(_ context.Context, a *models.NotificationAttempt) error {
	f.attempts = append(f.attempts, *a)
	return nil
}

type dispatchCall struct {
	recipients []string
	msg        render.Message
}

type fakeChannel struct {
	name     string
	disabled bool
	contact  func(models.User) string
	err      error
	calls    []dispatchCall
}

func (c *fakeChannel) Name() string { return c.name }
func (c *fakeChannel) Enabled() bool { return !c.disabled }
func (c *fakeChannel) Contact(u models.User) string { return c.contact(u) }
func (c *fakeChannel) Dispatch(_ context.Context, recipients []string, msg render.Message) error {
	c.calls = append(c.calls, dispatchCall{recipients: recipients, msg: msg})
	return c.err
}

func emailFake() *fakeChannel {
	return &fakeChannel{name: ChannelEmail, contact: func(u models.User) string { return u.Email }}
}

func whatsAppFake() *fakeChannel {
	return &fakeChannel{name: ChannelWhatsApp, contact: func(u models.User) string {
		if u.Phone == nil {
			return ""
		}
		return *u.Phone
	}}
}

func sub(email string, phone *string) models.Subscriber {
	return models.Subscriber{User: models.User{Email: email, Phone: phone}}
}

func phone(p string) *string { return &p }

func newTestNotifier(subs SubscriberSource, attempts AttemptRecorder, channels ...Channel) *Notifier {
	n := NewNotifier(subs, attempts, discardLogger, channels...)
	n.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return n
}

var testMsg = render.Message{Subject: "[T] Nova pergunta no grupo", HTML: "<p>c</p>", Text: "c"}

func TestNotifyGroup_BatchesOptedInRecipientsPerChannel(t *testing.T) {
	subs := &fakeSubscribers{byChannel: map[string][]models.Subscriber{
		ChannelEmail:    {sub("a@x.com", nil), sub("b@x.com", nil)},
		ChannelWhatsApp: {sub("b@x.com", phone("+5511999990000"))},
	}}
	attempts := &fakeAttempts{}
	email, wa := emailFake(), whatsAppFake()

	results := newTestNotifier(subs, attempts, email, wa).NotifyGroup(context.Background(), "g1", models.NotificationEventThreadCreated, testMsg)

	require.Len(t, email.calls, 1)
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, email.calls[0].recipients)
	assert.Equal(t, testMsg, email.calls[0].msg)
	require.Len(t, wa.calls, 1)
	assert.Equal(t, []string{"+5511999990000"}, wa.calls[0].recipients)

	want := []Result{
		{Channel: ChannelEmail, Recipients: 2},
		{Channel: ChannelWhatsApp, Recipients: 1},
	}
	if diff := cmp.Diff(want, results); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, attempts.attempts, 2)
	assert.Equal(t, models.NotificationStatusSent, attempts.attempts[0].Status)
	assert.Equal(t, "g1", attempts.attempts[0].GroupID)
	assert.Equal(t, models.NotificationEventThreadCreated, attempts.attempts[0].Event)
}

func TestNotifyGroup_NoSubscribersMakesNoCalls(t *testing.T) {
	subs := &fakeSubscribers{byChannel: map[string][]models.Subscriber{}}
	attempts := &fakeAttempts{}
	email, wa := emailFake(), whatsAppFake()

	results := newTestNotifier(subs, attempts, email, wa).NotifyGroup(context.Background(), "g1", models.NotificationEventReplyCreated, testMsg)

	assert.Empty(t, email.calls)
	assert.Empty(t, wa.calls)
	assert.Empty(t, attempts.attempts)
	for _, r := range results {
		assert.True(t, r.Skipped)
		assert.NoError(t, r.Err)
	}
}

func TestNotifyGroup_DisabledChannelIsNotQueried(t *testing.T) {
	subs := &fakeSubscribers{byChannel: map[string][]models.Subscriber{
		ChannelWhatsApp: {sub("a@x.com", phone("+551100"))},
	}}
	wa := whatsAppFake()
	wa.disabled = true

	results := newTestNotifier(subs, nil, wa).NotifyGroup(context.Background(), "g1", models.NotificationEventThreadCreated, testMsg)

	assert.Empty(t, wa.calls)
	assert.Empty(t, subs.calls)
	require.Len(t, results, 1)
	assert.True(t, results[0].Skipped)
}

func TestNotifyGroup_DropsBlankAndDuplicateContacts(t *testing.T) {
	subs := &fakeSubscribers{byChannel: map[string][]models.Subscriber{
		ChannelWhatsApp: {
			sub("a@x.com", nil),
			sub("b@x.com", phone("")),
			sub("c@x.com", phone("+551100")),
			sub("d@x.com", phone(" +551100 ")),
		},
	}}
	wa := whatsAppFake()

	newTestNotifier(subs, nil, wa).NotifyGroup(context.Background(), "g1", models.NotificationEventThreadCreated, testMsg)

	require.Len(t, wa.calls, 1)
	assert.Equal(t, []string{"+551100"}, wa.calls[0].recipients)
}

func TestNotifyGroup_FailureIsIsolatedAndRecorded(t *testing.T) {
	subs := &fakeSubscribers{byChannel: map[string][]models.Subscriber{
		ChannelEmail:    {sub("a@x.com", nil)},
		ChannelWhatsApp: {sub("a@x.com", phone("+551100"))},
	}}
	attempts := &fakeAttempts{}
	email, wa := emailFake(), whatsAppFake()
	email.err = errors.New("connection refused")

	results := newTestNotifier(subs, attempts, email, wa).NotifyGroup(context.Background(), "g1", models.NotificationEventThreadCreated, testMsg)

	require.Len(t, results, 2)
	assert.EqualError(t, results[0].Err, "connection refused")
	assert.NoError(t, results[1].Err)
	assert.Len(t, wa.calls, 1, "WhatsApp still runs after email fails")

	require.Len(t, attempts.attempts, 2)
	assert.Equal(t, models.NotificationStatusFailed, attempts.attempts[0].Status)
	assert.Equal(t, "connection refused", attempts.attempts[0].ErrorMessage)
	assert.Equal(t, models.NotificationStatusSent, attempts.attempts[1].Status)
}

func TestNotifyGroup_SubscriberLookupErrorIsRecorded(t *testing.T) {
	subs := &fakeSubscribers{err: errors.New("db down")}
	email := emailFake()

	attempts := &fakeAttempts{}

	results := newTestNotifier(subs, attempts, email).NotifyGroup(context.Background(), "g1", models.NotificationEventThreadCreated, testMsg)

	assert.Empty(t, email.calls)
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, subs.err)

	require.Len(t, attempts.attempts, 1)
	assert.Equal(t, models.NotificationStatusFailed, attempts.attempts[0].Status)
	assert.Equal(t, 0, attempts.attempts[0].Recipients)
	assert.Contains(t, attempts.attempts[0].ErrorMessage, "db down")
}
