package routehandlers

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/granforum/forum/datastore"
	"github.com/granforum/forum/models"
	"github.com/granforum/forum/webutil"
)

type GroupHandler struct {
	Repo *datastore.GroupRepository
	Now  Clock
}

func NewGroupHandler(repo *datastore.GroupRepository) *GroupHandler {
	return &GroupHandler{Repo: repo, Now: utcNow}
}

// HandleGetGroups lists every group, newest first.
func (h *GroupHandler) HandleGetGroups(w http.ResponseWriter, r *http.Request) error {
	groups, err := h.Repo.GetGroups(r.Context())
	if err != nil {
		return fmt.Errorf("failed to retrieve groups: %w", err)
	}
	webutil.RespondWithJSON(w, http.StatusOK, groups)
	return nil
}

func (h *GroupHandler) HandleCreateGroup(w http.ResponseWriter, r *http.Request) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := webutil.DecodeJSON(r, createGroupSchema, &req); err != nil {
		return err
	}

	group := models.Group{
		ID:        uuid.NewString(),
		Name:      req.Name,
		CreatedAt: h.Now(),
	}
	if err := h.Repo.CreateGroup(r.Context(), &group); err != nil {
		return fmt.Errorf("failed to create group %q: %w", group.Name, err)
	}

	webutil.RespondWithJSON(w, http.StatusOK, group)
	return nil
}
