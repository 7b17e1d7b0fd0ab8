package timing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clock(t *testing.T, s string) *Clock {
	t.Helper()
	c, err := ParseClock(s)
	require.NoError(t, err)
	return &c
}

func electionDay(t *testing.T) time.Time {
	t.Helper()
	d, err := ParseDate("2025-06-01", time.UTC)
	require.NoError(t, err)
	return d
}

func TestParseClock(t *testing.T) {
	valid := map[string]Clock{
		"00:00": {0, 0},
		"08:00": {8, 0},
		"17:30": {17, 30},
		"23:59": {23, 59},
	}
	for in, want := range valid {
		got, err := ParseClock(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
		assert.Equal(t, in, got.String())
	}

	for _, in := range []string{"", "8:00", "24:00", "12:60", "ab:cd", "12-30", "12:3", "12:300", "-1:00"} {
		_, err := ParseClock(in)
		assert.ErrorIs(t, err, ErrInvalidClock, in)
	}
}

func TestParseOptionalClock(t *testing.T) {
	c, err := ParseOptionalClock("")
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = ParseOptionalClock("09:15")
	require.NoError(t, err)
	assert.Equal(t, &Clock{9, 15}, c)

	_, err = ParseOptionalClock("9:15")
	assert.ErrorIs(t, err, ErrInvalidClock)
}

func TestParseDate(t *testing.T) {
	manila := time.FixedZone("PHT", 8*60*60)

	d, err := ParseDate("2025-06-01", manila)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, manila), d)

	_, err = ParseDate("2025-13-01", time.UTC)
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestValidateWindow(t *testing.T) {
	assert.NoError(t, ValidateWindow(nil, nil))
	assert.NoError(t, ValidateWindow(clock(t, "08:00"), nil))
	assert.NoError(t, ValidateWindow(nil, clock(t, "17:00")))
	assert.NoError(t, ValidateWindow(clock(t, "08:00"), clock(t, "08:01")))
	assert.ErrorIs(t, ValidateWindow(clock(t, "08:00"), clock(t, "08:00")), ErrCloseNotAfter)
	assert.ErrorIs(t, ValidateWindow(clock(t, "17:00"), clock(t, "08:00")), ErrCloseNotAfter)
}

func TestResolveConfiguredWindow(t *testing.T) {
	w := Window{Date: electionDay(t), Open: clock(t, "08:00"), Close: clock(t, "17:00")}
	at := func(h, m, s int) time.Time { return time.Date(2025, 6, 1, h, m, s, 0, time.UTC) }

	tests := []struct {
		name  string
		now   time.Time
		state string
	}{
		{"day before", time.Date(2025, 5, 31, 12, 0, 0, 0, time.UTC), StateScheduled},
		{"same day before open", at(7, 59, 0), StateScheduled},
		{"exactly at open", at(8, 0, 0), StateOpen},
		{"just after open", at(8, 0, 1), StateOpen},
		{"just before close", at(16, 59, 59), StateOpen},
		{"exactly at close", at(17, 0, 0), StateClosed},
		{"same day after close", at(17, 0, 1), StateClosed},
		{"day after", time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC), StateClosed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Resolve(tt.now, w)
			assert.Equal(t, tt.state, p.State)
			assert.Equal(t, at(8, 0, 0), p.OpensAt)
			assert.Equal(t, at(17, 0, 0), p.ClosesAt)
		})
	}
}

func TestResolveCountdowns(t *testing.T) {
	w := Window{Date: electionDay(t), Open: clock(t, "08:00"), Close: clock(t, "17:00")}

	p := Resolve(time.Date(2025, 6, 1, 7, 59, 0, 0, time.UTC), w)
	assert.Equal(t, time.Minute, p.OpensIn)
	assert.EqualValues(t, 60, p.SecondsRemaining())

	p = Resolve(time.Date(2025, 6, 1, 16, 0, 0, 0, time.UTC), w)
	assert.Equal(t, time.Hour, p.ClosesIn)
	assert.EqualValues(t, 3600, p.SecondsRemaining())

	p = Resolve(time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC), w)
	assert.Zero(t, p.SecondsRemaining())
}

func TestResolveWholeDayWhenUnconfigured(t *testing.T) {
	w := Window{Date: electionDay(t)}

	assert.Equal(t, StateScheduled, Resolve(time.Date(2025, 5, 31, 23, 59, 59, 0, time.UTC), w).State)
	assert.Equal(t, StateOpen, Resolve(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), w).State)
	assert.Equal(t, StateOpen, Resolve(time.Date(2025, 6, 1, 23, 59, 59, 0, time.UTC), w).State)
	assert.Equal(t, StateClosed, Resolve(time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), w).State)

	_, closesAt, ok := w.Bounds()
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), closesAt)
}

func TestResolveNotScheduled(t *testing.T) {
	p := Resolve(time.Now(), Window{})
	assert.Equal(t, StateNotScheduled, p.State)
	assert.True(t, p.ClosesAt.IsZero())
}

func TestOverride(t *testing.T) {
	base := Window{Date: electionDay(t), Open: clock(t, "08:00"), Close: clock(t, "17:00")}

	w := base.Override(clock(t, "10:00"), nil)
	assert.Equal(t, &Clock{10, 0}, w.Open)
	assert.Equal(t, &Clock{17, 0}, w.Close)
	assert.Equal(t, &Clock{8, 0}, base.Open, "base window must not change")

	w = base.Override(nil, nil)
	assert.Equal(t, base, w)
}

func TestDeriveElectionStatus(t *testing.T) {
	assert.Equal(t, StatusDraft, DeriveElectionStatus(true, Phase{State: StateOpen}))
	assert.Equal(t, StatusDraft, DeriveElectionStatus(false, Phase{State: StateNotScheduled}))
	assert.Equal(t, StatusUpcoming, DeriveElectionStatus(false, Phase{State: StateScheduled}))
	assert.Equal(t, StatusActive, DeriveElectionStatus(false, Phase{State: StateOpen}))
	assert.Equal(t, StatusCompleted, DeriveElectionStatus(false, Phase{State: StateClosed}))
}
