package routehandlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/granforum/forum/datastore"
	"github.com/granforum/forum/models"
	"github.com/granforum/forum/webutil"
)

type UserHandler struct {
	Repo *datastore.UserRepository
	Now  Clock
}

func NewUserHandler(repo *datastore.UserRepository) *UserHandler {
	return &UserHandler{Repo: repo, Now: utcNow}
}

func (h *UserHandler) HandleCreateUser(w http.ResponseWriter, r *http.Request) error {
	var req struct {
		Name  string  `json:"name"`
		Email string  `json:"email"`
		Phone *string `json:"phone"`
	}
	if err := webutil.DecodeJSON(r, createUserSchema, &req); err != nil {
		return err
	}

	newUser := models.User{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Email:     req.Email,
		Phone:     normalizePhone(req.Phone),
		CreatedAt: h.Now(),
	}
	if err := h.Repo.CreateUser(r.Context(), &newUser); err != nil {
		return fmt.Errorf("failed to create user %s: %w", newUser.Email, err)
	}

	webutil.RespondWithJSON(w, http.StatusOK, newUser)
	return nil
}

func (h *UserHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) error {
	userID, err := pathID(r, "user")
	if err != nil {
		return err
	}

	user, err := h.Repo.GetUserByID(r.Context(), userID)
	if err != nil {
		return lookupError(err, "User")
	}

	webutil.RespondWithJSON(w, http.StatusOK, user)
	return nil
}

// normalizePhone maps blank phones to nil so they never match an inbound sender.
func normalizePhone(phone *string) *string {
	if phone == nil {
		return nil
	}
	p := strings.TrimSpace(*phone)
	if p == "" {
		return nil
	}
	return &p
}
