package routehandlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/granforum/forum/datastore"
	"github.com/granforum/forum/delivery"
	"github.com/granforum/forum/models"
	"github.com/granforum/forum/render"
	"github.com/granforum/forum/webutil"
)

const defaultNotifyTimeout = 15 * time.Second

// GroupNotifier fans a message out to a group's subscribers.
type GroupNotifier interface {
	NotifyGroup(ctx context.Context, groupID string, event models.NotificationEvent, msg render.Message) []delivery.Result
}

type ThreadHandler struct {
	Threads  *datastore.ThreadRepository
	Posts    *datastore.PostRepository
	Groups   *datastore.GroupRepository
	Users    *datastore.UserRepository
	Notifier GroupNotifier
	Renderer *render.Renderer
	// NotifyTimeout bounds the fan-out run after a thread or reply is stored.
	NotifyTimeout time.Duration
	Now           Clock
}

func NewThreadHandler(
	threads *datastore.ThreadRepository,
	posts *datastore.PostRepository,
	groups *datastore.GroupRepository,
	users *datastore.UserRepository,
	notifier GroupNotifier,
	renderer *render.Renderer,
	notifyTimeout time.Duration,
) *ThreadHandler {
	if notifyTimeout <= 0 {
		notifyTimeout = defaultNotifyTimeout
	}
	return &ThreadHandler{
		Threads:       threads,
		Posts:         posts,
		Groups:        groups,
		Users:         users,
		Notifier:      notifier,
		Renderer:      renderer,
		NotifyTimeout: notifyTimeout,
		Now:           utcNow,
	}
}

// HandleCreateThread stores a thread with its opening post and notifies the group.
func (h *ThreadHandler) HandleCreateThread(w http.ResponseWriter, r *http.Request) error {
	groupID, err := pathID(r, "group")
	if err != nil {
		return err
	}

	var req struct {
		AuthorID string `json:"authorId"`
		Title    string `json:"title"`
		Content  string `json:"content"`
	}
	if err := webutil.DecodeJSON(r, createThreadSchema, &req); err != nil {
		return err
	}

	ctx := r.Context()
	if _, err := h.Groups.GetGroupByID(ctx, groupID); err != nil {
		return lookupError(err, "Group")
	}
	if _, err := h.Users.GetUserByID(ctx, req.AuthorID); err != nil {
		return lookupError(err, "Author")
	}

	now := h.Now()
	thread := models.Thread{
		ID:        uuid.NewString(),
		GroupID:   groupID,
		AuthorID:  req.AuthorID,
		Title:     req.Title,
		CreatedAt: now,
	}
	first := models.Post{
		ID:        uuid.NewString(),
		ThreadID:  thread.ID,
		AuthorID:  req.AuthorID,
		Content:   req.Content,
		Via:       models.PostViaWeb,
		CreatedAt: now,
	}
	if err := h.Threads.CreateThreadWithFirstPost(ctx, &thread, &first); err != nil {
		return fmt.Errorf("failed to create thread in group %s: %w", groupID, err)
	}

	h.notify(ctx, groupID, models.NotificationEventThreadCreated, h.Renderer.NewThread(thread, req.Content))

	webutil.RespondWithJSON(w, http.StatusOK, thread)
	return nil
}

// HandleGetGroupThreads lists a group's threads, newest first, without posts.
func (h *ThreadHandler) HandleGetGroupThreads(w http.ResponseWriter, r *http.Request) error {
	groupID, err := pathID(r, "group")
	if err != nil {
		return err
	}
	if _, err := h.Groups.GetGroupByID(r.Context(), groupID); err != nil {
		return lookupError(err, "Group")
	}

	threads, err := h.Threads.GetThreadsByGroupID(r.Context(), groupID)
	if err != nil {
		return fmt.Errorf("failed to retrieve threads for group %s: %w", groupID, err)
	}
	webutil.RespondWithJSON(w, http.StatusOK, threads)
	return nil
}

// HandleGetThread returns a thread with its posts in chronological order.
func (h *ThreadHandler) HandleGetThread(w http.ResponseWriter, r *http.Request) error {
	threadID, err := pathID(r, "thread")
	if err != nil {
		return err
	}

	thread, err := h.Threads.GetThreadByID(r.Context(), threadID)
	if err != nil {
		return lookupError(err, "Thread")
	}
	posts, err := h.Posts.GetPostsByThreadID(r.Context(), threadID)
	if err != nil {
		return fmt.Errorf("failed to retrieve posts for thread %s: %w", threadID, err)
	}
	thread.Posts = posts

	webutil.RespondWithJSON(w, http.StatusOK, thread)
	return nil
}

// HandleCreateReply appends a post to a thread and notifies the thread's group.
func (h *ThreadHandler) HandleCreateReply(w http.ResponseWriter, r *http.Request) error {
	threadID, err := pathID(r, "thread")
	if err != nil {
		return err
	}

	var req struct {
		AuthorID string         `json:"authorId"`
		Content  string         `json:"content"`
		Via      models.PostVia `json:"via"`
	}
	if err := webutil.DecodeJSON(r, createReplySchema, &req); err != nil {
		return err
	}
	if req.Via == "" {
		req.Via = models.PostViaWeb
	}

	ctx := r.Context()
	thread, err := h.Threads.GetThreadByID(ctx, threadID)
	if err != nil {
		return lookupError(err, "Thread")
	}
	if _, err := h.Users.GetUserByID(ctx, req.AuthorID); err != nil {
		return lookupError(err, "Author")
	}

	post := models.Post{
		ID:        uuid.NewString(),
		ThreadID:  threadID,
		AuthorID:  req.AuthorID,
		Content:   req.Content,
		Via:       req.Via,
		CreatedAt: h.Now(),
	}
	if err := h.Posts.CreatePost(ctx, &post); err != nil {
		return fmt.Errorf("failed to create reply in thread %s: %w", threadID, err)
	}

	h.notify(ctx, thread.GroupID, models.NotificationEventReplyCreated, h.Renderer.Reply(*thread, post))

	webutil.RespondWithJSON(w, http.StatusOK, post)
	return nil
}

// notify runs the fan-out detached from the request's cancellation so a client
// hanging up does not abort delivery. Failures are recorded by the notifier.
func (h *ThreadHandler) notify(ctx context.Context, groupID string, event models.NotificationEvent, msg render.Message) {
	if h.Notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.NotifyTimeout)
	defer cancel()
	h.Notifier.NotifyGroup(ctx, groupID, event, msg)
}
