package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	recorder := NewRecorderAPI()
	scoped := NewScopedAPI("venue_scraper", recorder)

	scoped.ReportBroken("scraper.scrape", errors.New("boom"))
	scoped.ReportWarning("scraper.fetch")
	scoped.ReportCount("events", 4)

	broken := recorder.Reports("broken", "")
	require.Len(t, broken, 1)
	require.Equal(t, "venue_scraper: scraper.scrape", broken[0].Id)

	require.Len(t, recorder.Reports("warning", "scraper.fetch"), 1)

	counts := recorder.Reports("count", "events")
	require.Len(t, counts, 1)
	require.Equal(t, []any{int64(4)}, counts[0].Params)
}

func TestMeteredAPIForwards(t *testing.T) {
	recorder := NewRecorderAPI()
	metered, err := NewMeteredAPI(recorder)
	if err != nil {
		t.Fatal(err)
	}

	metered.ReportBroken("aggregator.run", errors.New("disk full"))
	metered.ReportCount("shows", 2)

	require.Len(t, recorder.Reports("broken", "aggregator.run"), 1)
	require.Len(t, recorder.Reports("count", "shows"), 1)
}

func TestSetupOtelDisabled(t *testing.T) {
	shutdown, err := SetupOtel(context.Background(), "stagedates-test", OtlpConfig{})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	require.False(t, OtlpConfig{}.Metrics.Enabled())
	require.True(t, OtlpConnConfig{HttpEndpoint: "http://localhost:4318"}.Enabled())
}
