package showfeed

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"stagedates/internal/showfeed/schedule"
	"stagedates/internal/telemetry"

	"github.com/stretchr/testify/require"
)

func get(t *testing.T, server *httptest.Server, path string) (int, string) {
	t.Helper()
	res, err := http.Get(server.URL + path)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, string(body)
}

func TestFeedHandler(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shows.json")
	server := httptest.NewServer(NewFeedHandler(path, telemetry.NewRecorderAPI()))
	t.Cleanup(server.Close)

	status, _ := get(t, server, "/shows.json")
	require.Equal(t, http.StatusServiceUnavailable, status)
	status, _ = get(t, server, "/healthz")
	require.Equal(t, http.StatusServiceUnavailable, status)

	doc := schedule.Document{
		LastUpdated: time.Date(2025, 9, 1, 12, 0, 0, 0, berlin),
		Shows: map[string]schedule.Production{
			"der-komet": {
				Title:   "Der Komet",
				Theater: "Staatsschauspiel Dresden",
				Events: []schedule.Event{{
					At:        time.Date(2025, 9, 27, 19, 30, 0, 0, berlin),
					TicketUrl: "https://example.com/tickets?id=1&seat=a",
				}},
			},
		},
	}
	require.NoError(t, schedule.Write(path, doc))

	status, body := get(t, server, "/shows.json")
	require.Equal(t, http.StatusOK, status)
	var got schedule.Document
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	require.True(t, doc.LastUpdated.Equal(got.LastUpdated))
	require.Contains(t, got.Shows, "der-komet")

	status, body = get(t, server, "/shows/der-komet")
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, `"display_date":"27.09.2025"`)
	require.Contains(t, body, `"ticket_url":"https://example.com/tickets?id=1&seat=a"`)

	status, _ = get(t, server, "/shows/faust")
	require.Equal(t, http.StatusNotFound, status)

	status, body = get(t, server, "/healthz")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "ok", body)
}
