package routehandlers

import (
	"fmt"
	"net/http"

	"github.com/granforum/forum/datastore"
	"github.com/granforum/forum/webutil"
)

// NotificationLogLimit caps the attempts returned for a group.
const NotificationLogLimit = 50

type NotificationHandler struct {
	Attempts *datastore.NotificationAttemptRepository
	Groups   *datastore.GroupRepository
}

func NewNotificationHandler(attempts *datastore.NotificationAttemptRepository, groups *datastore.GroupRepository) *NotificationHandler {
	return &NotificationHandler{Attempts: attempts, Groups: groups}
}

// HandleGetGroupNotifications returns the latest dispatch attempts for a group.
func (h *NotificationHandler) HandleGetGroupNotifications(w http.ResponseWriter, r *http.Request) error {
	groupID, err := pathID(r, "group")
	if err != nil {
		return err
	}
	if _, err := h.Groups.GetGroupByID(r.Context(), groupID); err != nil {
		return lookupError(err, "Group")
	}

	attempts, err := h.Attempts.GetAttemptsByGroupID(r.Context(), groupID, NotificationLogLimit)
	if err != nil {
		return fmt.Errorf("failed to retrieve notification attempts for group %s: %w", groupID, err)
	}
	webutil.RespondWithJSON(w, http.StatusOK, attempts)
	return nil
}
