package routehandlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/google/uuid"

	"github.com/granforum/forum/datastore"
	"github.com/granforum/forum/models"
	"github.com/granforum/forum/webutil"
)

// RecentJobsLimit is how many listings GET /api/jobs returns.
const RecentJobsLimit = 30

type JobHandler struct {
	Repo *datastore.JobListingRepository
	Now  Clock
}

func NewJobHandler(repo *datastore.JobListingRepository) *JobHandler {
	return &JobHandler{Repo: repo, Now: utcNow}
}

type jobImportItem struct {
	Title       string  `json:"title"`
	Company     *string `json:"company"`
	Location    *string `json:"location"`
	Source      string  `json:"source"`
	URL         string  `json:"url"`
	PublishedAt *string `json:"publishedAt"`
	Tags        *string `json:"tags"`
}

// HandleImportJobs upserts a batch of listings keyed by URL. The whole batch is
// validated before anything is written and stored in one transaction.
func (h *JobHandler) HandleImportJobs(w http.ResponseWriter, r *http.Request) error {
	var req struct {
		Items []jobImportItem `json:"items"`
	}
	if err := webutil.DecodeJSON(r, importJobsSchema, &req); err != nil {
		return err
	}

	now := h.Now()
	listings := make([]models.JobListing, 0, len(req.Items))
	fieldErrs := map[string]string{}
	for i, item := range req.Items {
		publishedAt, err := parsePublishedAt(item.PublishedAt)
		if err != nil {
			fieldErrs[fmt.Sprintf("items.%d.publishedAt", i)] = err.Error()
			continue
		}
		listings = append(listings, models.JobListing{
			ID:          uuid.NewString(),
			Title:       item.Title,
			Company:     item.Company,
			Location:    item.Location,
			Source:      item.Source,
			URL:         item.URL,
			PublishedAt: publishedAt,
			Tags:        item.Tags,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	if len(fieldErrs) > 0 {
		return &webutil.ValidationError{Fields: fieldErrs}
	}

	n, err := h.Repo.UpsertJobListings(r.Context(), listings)
	if err != nil {
		return fmt.Errorf("failed to import %d job listings: %w", len(listings), err)
	}

	webutil.RespondWithJSON(w, http.StatusOK, map[string]int{"imported": n})
	return nil
}

// HandleGetJobs returns the most recently created listings.
func (h *JobHandler) HandleGetJobs(w http.ResponseWriter, r *http.Request) error {
	listings, err := h.Repo.GetRecentJobListings(r.Context(), RecentJobsLimit)
	if err != nil {
		return fmt.Errorf("failed to retrieve job listings: %w", err)
	}
	webutil.RespondWithJSON(w, http.StatusOK, listings)
	return nil
}

// parsePublishedAt accepts any date layout dateparse understands. Dates without
// a zone are read as UTC. Blank values mean unknown.
func parsePublishedAt(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := dateparse.ParseIn(strings.TrimSpace(*raw), time.UTC)
	if err != nil {
		return nil, fmt.Errorf("unrecognised date %q", *raw)
	}
	t = t.UTC()
	return &t, nil
}
