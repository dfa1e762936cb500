package chrono

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStandardImplLocation(t *testing.T) {
	impl, err := NewStandardImpl()
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, Venue, impl.Location().String())
	require.Equal(t, Venue, impl.Now().Location().String())
}

func TestFixedImpl(t *testing.T) {
	loc, err := time.LoadLocation(Venue)
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2025, time.September, 1, 12, 0, 0, 0, loc)
	fixed := NewFixedImpl(now)
	require.Equal(t, now, fixed.Now())
	require.Equal(t, loc, fixed.Location())
}
