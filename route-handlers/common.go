package routehandlers

import (
	"embed"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/granforum/forum/datastore"
	"github.com/granforum/forum/webutil"
)

const paramID = "id" // route parameter for resource IDs, see api/routes.go

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	createUserSchema   = mustSchema("create_user.json")
	createGroupSchema  = mustSchema("create_group.json")
	subscribeSchema    = mustSchema("subscribe.json")
	createThreadSchema = mustSchema("create_thread.json")
	createReplySchema  = mustSchema("create_reply.json")
	importJobsSchema   = mustSchema("import_jobs.json")
)

func mustSchema(name string) *webutil.Schema {
	raw, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		panic(fmt.Sprintf("missing embedded schema %s: %v", name, err))
	}
	return webutil.MustCompileSchema(name, raw)
}

// Clock supplies creation timestamps. Tests replace it to get stable values.
type Clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }

// pathID returns the {id} route parameter, rejecting anything that is not a UUID.
func pathID(r *http.Request, resource string) (string, error) {
	id := chi.URLParam(r, paramID)
	if _, err := uuid.Parse(id); err != nil {
		return "", webutil.ErrBadRequest(fmt.Sprintf("Invalid %s ID format", resource))
	}
	return id, nil
}

// lookupError turns a datastore miss into a 404 for resource and wraps anything else.
func lookupError(err error, resource string) error {
	if errors.Is(err, datastore.ErrNotFound) {
		return webutil.ErrNotFound(resource + " not found").Wrap(err)
	}
	return fmt.Errorf("failed to look up %s: %w", strings.ToLower(resource), err)
}
