package routehandlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/granforum/forum/webutil"
)

func strPtr(s string) *string { return &s }

func TestParsePublishedAt(t *testing.T) {
	tests := []struct {
		name    string
		raw     *string
		want    *time.Time
		wantErr bool
	}{
		{name: "nil", raw: nil},
		{name: "blank", raw: strPtr("   ")},
		{name: "rfc3339", raw: strPtr("2024-05-02T10:30:00Z"), want: timePtr(time.Date(2024, 5, 2, 10, 30, 0, 0, time.UTC))},
		{name: "date only", raw: strPtr("2024-05-02"), want: timePtr(time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC))},
		{name: "offset normalised to utc", raw: strPtr("2024-05-02T10:30:00-03:00"), want: timePtr(time.Date(2024, 5, 2, 13, 30, 0, 0, time.UTC))},
		{name: "garbage", raw: strPtr("not a date"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePublishedAt(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "got %v want %v", got, tt.want)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func timePtr(t time.Time) *time.Time { return &t }

func TestNormalizePhone(t *testing.T) {
	assert.Nil(t, normalizePhone(nil))
	assert.Nil(t, normalizePhone(strPtr("  ")))
	assert.Equal(t, "+5511999990000", *normalizePhone(strPtr(" +5511999990000 ")))
}

func TestFlagOrDefault(t *testing.T) {
	off := false
	assert.True(t, flagOrDefault(nil))
	assert.False(t, flagOrDefault(&off))
}

func TestPathID(t *testing.T) {
	req := func(id string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add(paramID, id)
		return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}

	id := "0b6f1f0e-6a57-4a35-9d0c-0e3a4c0f6b11"
	got, err := pathID(req(id), "group")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = pathID(req("nope"), "group")
	var httpErr *webutil.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
	assert.Equal(t, "Invalid group ID format", httpErr.Message)
}

func TestLookupError(t *testing.T) {
	var httpErr *webutil.HTTPError
	err := lookupError(sql.ErrNoRows, "Thread")
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)
	assert.Equal(t, "Thread not found", httpErr.Message)

	boom := errors.New("boom")
	err = lookupError(boom, "Thread")
	assert.ErrorIs(t, err, boom)
	assert.False(t, errors.As(err, &httpErr))
}
