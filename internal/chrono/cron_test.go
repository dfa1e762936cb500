package chrono

import (
	"errors"
	"testing"
	"time"

	"stagedates/internal/telemetry"

	"github.com/stretchr/testify/require"
)

func TestStandardCronSpecs(t *testing.T) {
	cron := NewStandardCron(time.UTC, telemetry.NewRecorderAPI())
	t.Cleanup(cron.Stop)

	require.NoError(t, cron.Cron("0 */6 * * *", func() {}))
	require.NoError(t, cron.Cron("@every 1h", func() {}))
	require.Error(t, cron.Cron("every six hours", func() {}))
	require.Error(t, cron.Cron("61 * * * *", func() {}))
}

func TestCronLogger(t *testing.T) {
	tel := telemetry.NewRecorderAPI()
	logger := cronLogger{tel: tel}

	logger.Info("schedule", "entry", 1, "dangling")
	debug := tel.Reports("debug", "cron: schedule")
	require.Len(t, debug, 1)
	require.Equal(t, []any{"entry: 1"}, debug[0].Params)

	logger.Error(errors.New("job panicked"), "run", "entry", 2)
	broken := tel.Reports("broken", "cron")
	require.Len(t, broken, 1)
	require.Len(t, broken[0].Params, 2)
	require.EqualError(t, broken[0].Params[0].(error), "run: job panicked")
	require.Equal(t, "entry: 2", broken[0].Params[1])
}
