package main

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/granforum/forum/delivery"
	"github.com/granforum/forum/models"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCommand()

	for _, name := range []string{"serve", "migrate", "jobs", "test-notify"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}

	show, _, err := root.Find([]string{"jobs", "show"})
	require.NoError(t, err)
	assert.Equal(t, "show", show.Name())

	flag := root.PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
	assert.Equal(t, "c", flag.Shorthand)
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"only"}}, nil)
	assert.Contains(t, out, "only")
	assert.Contains(t, out, "A")
	assert.Empty(t, renderTable(nil, nil, nil))
}

func TestPrintJobs(t *testing.T) {
	company := "Acme"
	published := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	printJobs(&buf, []models.JobListing{
		{Title: "Backend", Company: &company, Source: "board", URL: "https://jobs.example/1", PublishedAt: &published},
		{Title: "Frontend", Source: "board", URL: "https://jobs.example/2"},
	}, 5)

	out := buf.String()
	assert.Contains(t, out, "2024-03-01")
	assert.Contains(t, out, "Acme")
	assert.Contains(t, out, "Showing 2 of 5 listings")

	buf.Reset()
	printJobs(&buf, nil, 0)
	assert.Equal(t, "No job listings\n", buf.String())
}

func TestPrintJob(t *testing.T) {
	tags := "go,remote"
	var buf bytes.Buffer
	printJob(&buf, models.JobListing{
		ID:        "j1",
		Title:     "Backend",
		Source:    "board",
		URL:       "https://jobs.example/1",
		Tags:      &tags,
		CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC),
	})

	out := buf.String()
	assert.Contains(t, out, "https://jobs.example/1")
	assert.Contains(t, out, "go,remote")
	assert.Contains(t, out, "2024-03-02T12:00:00Z")
}

func TestPrintResults(t *testing.T) {
	var buf bytes.Buffer
	printResults(&buf, []delivery.Result{
		{Channel: delivery.ChannelEmail, Recipients: 2},
		{Channel: delivery.ChannelWhatsApp, Skipped: true},
		{Channel: "sms", Recipients: 1, Err: errors.New("boom")},
	})

	out := buf.String()
	assert.Contains(t, out, "sent")
	assert.Contains(t, out, "skipped")
	assert.Contains(t, out, "failed: boom")
}
