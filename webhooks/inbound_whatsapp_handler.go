package webhooks

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/granforum/forum/datastore"
	"github.com/granforum/forum/models"
	"github.com/granforum/forum/webutil"
)

//go:embed schemas/whatsapp_inbound.json
var inboundSchemaJSON []byte

var inboundSchema = webutil.MustCompileSchema("whatsapp_inbound.json", inboundSchemaJSON)

// InboundWhatsAppHandler turns WhatsApp messages relayed by n8n into thread replies.
type InboundWhatsAppHandler struct {
	Users   *datastore.UserRepository
	Threads *datastore.ThreadRepository
	Posts   *datastore.PostRepository
	// Secret, when set, requires a valid X-Forum-Signature on every request.
	Secret string
	Now    func() time.Time
	logger *slog.Logger
}

func NewInboundWhatsAppHandler(
	users *datastore.UserRepository,
	threads *datastore.ThreadRepository,
	posts *datastore.PostRepository,
	secret string,
	logger *slog.Logger,
) *InboundWhatsAppHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &InboundWhatsAppHandler{
		Users:   users,
		Threads: threads,
		Posts:   posts,
		Secret:  secret,
		Now:     func() time.Time { return time.Now().UTC() },
		logger:  logger.With("component", "whatsapp-webhook"),
	}
}

type inboundMessage struct {
	ThreadID    string `json:"threadId"`
	AuthorPhone string `json:"authorPhone"`
	Text        string `json:"text"`
}

// HandleInbound records the message as a post by the user owning authorPhone.
// Inbound posts are not fanned out again: the text already went through WhatsApp.
func (h *InboundWhatsAppHandler) HandleInbound(w http.ResponseWriter, r *http.Request) error {
	body, err := webutil.ReadBody(r)
	if err != nil {
		return err
	}
	if h.Secret != "" && !webutil.VerifySignature(h.Secret, body, r.Header.Get(webutil.HeaderSignature)) {
		return webutil.ErrUnauthorized("Invalid webhook signature")
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	var msg inboundMessage
	if err := webutil.DecodeJSON(r, inboundSchema, &msg); err != nil {
		return err
	}

	ctx := r.Context()
	// Exact match: the relay sends the number as stored at registration.
	author, err := h.Users.GetUserByPhone(ctx, msg.AuthorPhone)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			h.logger.Info("Inbound message from unknown phone", "thread_id", msg.ThreadID)
			return webutil.ErrBadRequest("User not found for phone").Wrap(err)
		}
		return fmt.Errorf("failed to look up user by phone: %w", err)
	}

	if _, err := h.Threads.GetThreadByID(ctx, msg.ThreadID); err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return webutil.ErrNotFound("Thread not found").Wrap(err)
		}
		return fmt.Errorf("failed to look up thread %s: %w", msg.ThreadID, err)
	}

	post := models.Post{
		ID:        uuid.NewString(),
		ThreadID:  msg.ThreadID,
		AuthorID:  author.ID,
		Content:   msg.Text,
		Via:       models.PostViaWhatsApp,
		CreatedAt: h.Now(),
	}
	if err := h.Posts.CreatePost(ctx, &post); err != nil {
		return fmt.Errorf("failed to store inbound WhatsApp post for thread %s: %w", msg.ThreadID, err)
	}

	h.logger.Info("Inbound WhatsApp post stored", "thread_id", post.ThreadID, "post_id", post.ID, "author_id", author.ID)
	webutil.RespondWithJSON(w, http.StatusOK, map[string]any{"ok": true, "post": post})
	return nil
}
