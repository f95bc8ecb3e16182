package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openslot/openslot-backend/internal/pkg/interval"
)

func mustLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func day(t *testing.T, loc *time.Location, hour, min int) time.Time {
	t.Helper()
	return time.Date(2026, 9, 14, hour, min, 0, 0, loc)
}

func TestGenerateSlotsStepsByDuration(t *testing.T) {
	loc := mustLocation(t, "America/New_York")

	slots := GenerateSlots(GenerateInput{
		Window:   interval.Span{Start: day(t, loc, 9, 0), End: day(t, loc, 12, 0)},
		Duration: time.Hour,
		Location: loc,
	})

	require.Len(t, slots, 3)
	assert.Equal(t, day(t, loc, 9, 0), slots[0].Start.In(loc))
	assert.Equal(t, day(t, loc, 10, 0), slots[1].Start.In(loc))
	assert.Equal(t, day(t, loc, 11, 0), slots[2].Start.In(loc))
	assert.Equal(t, "11:00 AM", slots[2].StartLocal)
	assert.Equal(t, "12:00 PM", slots[2].EndLocal)
	for _, s := range slots {
		assert.True(t, s.Available)
		assert.Equal(t, time.Hour, s.End.Sub(s.Start))
	}
}

func TestGenerateSlotsWindowTooSmall(t *testing.T) {
	loc := mustLocation(t, "America/New_York")

	slots := GenerateSlots(GenerateInput{
		Window:   interval.Span{Start: day(t, loc, 9, 0), End: day(t, loc, 9, 45)},
		Duration: time.Hour,
		Location: loc,
	})
	assert.Empty(t, slots)
}

func TestGenerateSlotsLastSlotEndsExactlyAtWindowEnd(t *testing.T) {
	loc := mustLocation(t, "America/New_York")

	slots := GenerateSlots(GenerateInput{
		Window:   interval.Span{Start: day(t, loc, 9, 0), End: day(t, loc, 10, 30)},
		Duration: 30 * time.Minute,
		Location: loc,
	})

	require.Len(t, slots, 3)
	assert.Equal(t, day(t, loc, 10, 30), slots[2].End.In(loc))
}

func TestGenerateSlotsExistingAppointmentBlocks(t *testing.T) {
	loc := mustLocation(t, "America/New_York")

	slots := GenerateSlots(GenerateInput{
		Window:   interval.Span{Start: day(t, loc, 9, 0), End: day(t, loc, 12, 0)},
		Duration: time.Hour,
		Existing: []interval.Span{{Start: day(t, loc, 10, 0), End: day(t, loc, 11, 0)}},
		Location: loc,
	})

	require.Len(t, slots, 3)
	assert.True(t, slots[0].Available)
	assert.False(t, slots[1].Available)
	assert.True(t, slots[2].Available)
}

// A 15-minute after-buffer on one booking and a 10-minute before-buffer on
// the candidate must collide even though the raw intervals only touch.
func TestGenerateSlotsBufferCollision(t *testing.T) {
	loc := mustLocation(t, "America/New_York")

	// Existing booking 10:00-10:30 stored with its own 15m after-buffer.
	existing := interval.Span{Start: day(t, loc, 10, 0), End: day(t, loc, 10, 45)}

	slots := GenerateSlots(GenerateInput{
		Window:       interval.Span{Start: day(t, loc, 10, 30), End: day(t, loc, 11, 30)},
		Duration:     30 * time.Minute,
		BufferBefore: 10 * time.Minute,
		Existing:     []interval.Span{existing},
		Location:     loc,
	})

	require.Len(t, slots, 2)
	// Candidate 10:30-11:00 padded to 10:20-11:00 overlaps the 10:45 tail.
	assert.False(t, slots[0].Available)
	// Candidate 11:00-11:30 padded to 10:50-11:30 clears it.
	assert.True(t, slots[1].Available)
}

func TestGenerateSlotsTouchingIntervalsDoNotConflict(t *testing.T) {
	loc := mustLocation(t, "America/New_York")

	slots := GenerateSlots(GenerateInput{
		Window:   interval.Span{Start: day(t, loc, 9, 0), End: day(t, loc, 11, 0)},
		Duration: time.Hour,
		Existing: []interval.Span{{Start: day(t, loc, 10, 0), End: day(t, loc, 11, 0)}},
		Location: loc,
	})

	require.Len(t, slots, 2)
	// 9:00-10:00 ends exactly where the booking starts; no buffers, no conflict.
	assert.True(t, slots[0].Available)
	assert.False(t, slots[1].Available)
}

func TestGenerateSlotsBusyIntervalBlocks(t *testing.T) {
	loc := mustLocation(t, "America/New_York")

	slots := GenerateSlots(GenerateInput{
		Window:   interval.Span{Start: day(t, loc, 9, 0), End: day(t, loc, 12, 0)},
		Duration: time.Hour,
		Busy:     []interval.Span{{Start: day(t, loc, 9, 30), End: day(t, loc, 10, 15)}},
		Location: loc,
	})

	require.Len(t, slots, 3)
	assert.False(t, slots[0].Available)
	assert.False(t, slots[1].Available)
	assert.True(t, slots[2].Available)
}

func TestGenerateSlotsChronologicalOrder(t *testing.T) {
	loc := mustLocation(t, "America/New_York")

	slots := GenerateSlots(GenerateInput{
		Window:   interval.Span{Start: day(t, loc, 8, 0), End: day(t, loc, 18, 0)},
		Duration: 45 * time.Minute,
		Location: loc,
	})

	require.NotEmpty(t, slots)
	for i := 1; i < len(slots); i++ {
		assert.True(t, slots[i].Start.After(slots[i-1].Start))
	}
}

func TestGenerateSlotsInvalidInput(t *testing.T) {
	loc := mustLocation(t, "America/New_York")

	assert.Nil(t, GenerateSlots(GenerateInput{
		Window:   interval.Span{Start: day(t, loc, 9, 0), End: day(t, loc, 12, 0)},
		Duration: 0,
		Location: loc,
	}))
	assert.Nil(t, GenerateSlots(GenerateInput{
		Window:   interval.Span{Start: day(t, loc, 12, 0), End: day(t, loc, 9, 0)},
		Duration: time.Hour,
		Location: loc,
	}))
}
