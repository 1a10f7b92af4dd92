package routehandlers

import (
	"fmt"
	"net/http"

	"github.com/granforum/forum/datastore"
	"github.com/granforum/forum/models"
	"github.com/granforum/forum/webutil"
)

type SubscriptionHandler struct {
	Repo   *datastore.SubscriptionRepository
	Groups *datastore.GroupRepository
	Users  *datastore.UserRepository
	Now    Clock
}

func NewSubscriptionHandler(
	repo *datastore.SubscriptionRepository,
	groups *datastore.GroupRepository,
	users *datastore.UserRepository,
) *SubscriptionHandler {
	return &SubscriptionHandler{Repo: repo, Groups: groups, Users: users, Now: utcNow}
}

// HandleSubscribe creates or updates the caller's subscription to a group.
// Omitted channel flags default to on, including when updating.
func (h *SubscriptionHandler) HandleSubscribe(w http.ResponseWriter, r *http.Request) error {
	groupID, err := pathID(r, "group")
	if err != nil {
		return err
	}

	var req struct {
		UserID  string `json:"userId"`
		EmailOn *bool  `json:"emailOn"`
		WaOn    *bool  `json:"waOn"`
	}
	if err := webutil.DecodeJSON(r, subscribeSchema, &req); err != nil {
		return err
	}

	ctx := r.Context()
	if _, err := h.Groups.GetGroupByID(ctx, groupID); err != nil {
		return lookupError(err, "Group")
	}
	if _, err := h.Users.GetUserByID(ctx, req.UserID); err != nil {
		return lookupError(err, "User")
	}

	sub := models.Subscription{
		UserID:    req.UserID,
		GroupID:   groupID,
		EmailOn:   flagOrDefault(req.EmailOn),
		WaOn:      flagOrDefault(req.WaOn),
		CreatedAt: h.Now(),
	}
	if err := h.Repo.UpsertSubscription(ctx, &sub); err != nil {
		return fmt.Errorf("failed to subscribe user %s to group %s: %w", req.UserID, groupID, err)
	}

	webutil.RespondWithJSON(w, http.StatusOK, sub)
	return nil
}

func flagOrDefault(flag *bool) bool {
	if flag == nil {
		return true
	}
	return *flag
}
