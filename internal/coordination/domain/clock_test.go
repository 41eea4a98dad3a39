package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"09:00", 540, false},
		{"00:00", 0, false},
		{"17:30", 1050, false},
		{"24:00", 1440, false},
		{"24:01", 0, true},
		{"25:00", 0, true},
		{"09:60", 0, true},
		{"bogus", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseClock(tt.input)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidClock, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "09:00", FormatClock(540))
	assert.Equal(t, "00:00", FormatClock(0))
	assert.Equal(t, "17:30", FormatClock(1050))
	assert.Equal(t, "00:00", FormatClock(-10))
}

func TestRoundUpToGranularity(t *testing.T) {
	assert.Equal(t, 0, RoundUpToGranularity(0))
	assert.Equal(t, 0, RoundUpToGranularity(-5))
	assert.Equal(t, 10, RoundUpToGranularity(1))
	assert.Equal(t, 10, RoundUpToGranularity(10))
	assert.Equal(t, 20, RoundUpToGranularity(11))
}

func TestTimeRangeString(t *testing.T) {
	r := TimeRange{Start: 600, End: 660}
	assert.Equal(t, "10:00~11:00", r.String())
}

func TestTimeRangeOverlaps(t *testing.T) {
	r := TimeRange{Start: 600, End: 660}

	assert.True(t, r.Overlaps(TimeRange{Start: 630, End: 690}))
	assert.True(t, r.Overlaps(TimeRange{Start: 540, End: 610}))
	// Half-open: touching ranges do not overlap.
	assert.False(t, r.Overlaps(TimeRange{Start: 660, End: 720}))
	assert.False(t, r.Overlaps(TimeRange{Start: 540, End: 600}))
}

func TestMergeRanges(t *testing.T) {
	merged := MergeRanges([]TimeRange{
		{Start: 660, End: 720},
		{Start: 540, End: 600},
		{Start: 600, End: 660},
	})

	// Adjacent ranges coalesce.
	require.Len(t, merged, 1)
	assert.Equal(t, TimeRange{Start: 540, End: 720}, merged[0])
}

func TestMergeRangesDisjoint(t *testing.T) {
	merged := MergeRanges([]TimeRange{
		{Start: 840, End: 900},
		{Start: 540, End: 600},
	})

	require.Len(t, merged, 2)
	assert.Equal(t, TimeRange{Start: 540, End: 600}, merged[0])
	assert.Equal(t, TimeRange{Start: 840, End: 900}, merged[1])
}

func TestSubtractRanges(t *testing.T) {
	base := []TimeRange{{Start: 540, End: 1080}}

	result := SubtractRanges(base, []TimeRange{{Start: 720, End: 780}})
	require.Len(t, result, 2)
	assert.Equal(t, TimeRange{Start: 540, End: 720}, result[0])
	assert.Equal(t, TimeRange{Start: 780, End: 1080}, result[1])

	// Blocker covering the base removes it entirely.
	result = SubtractRanges(base, []TimeRange{{Start: 0, End: 1440}})
	assert.Empty(t, result)

	// Disjoint blocker leaves the base untouched.
	result = SubtractRanges(base, []TimeRange{{Start: 0, End: 540}})
	require.Len(t, result, 1)
	assert.Equal(t, TimeRange{Start: 540, End: 1080}, result[0])
}

func TestIntersectRanges(t *testing.T) {
	a := []TimeRange{{Start: 540, End: 1080}}
	b := []TimeRange{{Start: 540, End: 720}, {Start: 1020, End: 1200}}

	result := IntersectRanges(a, b)
	require.Len(t, result, 2)
	assert.Equal(t, TimeRange{Start: 540, End: 720}, result[0])
	assert.Equal(t, TimeRange{Start: 1020, End: 1080}, result[1])

	assert.Empty(t, IntersectRanges(a, []TimeRange{{Start: 0, End: 540}}))
}

func TestRangesContain(t *testing.T) {
	set := []TimeRange{{Start: 540, End: 720}, {Start: 780, End: 1080}}

	assert.True(t, RangesContain(set, TimeRange{Start: 600, End: 660}))
	assert.True(t, RangesContain(set, TimeRange{Start: 540, End: 720}))
	// Straddling two windows is not containment.
	assert.False(t, RangesContain(set, TimeRange{Start: 700, End: 800}))
	assert.False(t, RangesContain(set, TimeRange{Start: 720, End: 780}))
}
