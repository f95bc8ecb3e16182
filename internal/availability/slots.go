package availability

import (
	"time"

	"github.com/openslot/openslot-backend/internal/pkg/interval"
	"github.com/openslot/openslot-backend/internal/pkg/timeutil"
)

// GenerateInput is one day's resolved availability window plus everything
// that can conflict with it.
type GenerateInput struct {
	Window       interval.Span // absolute instants, already resolved from rule or override
	Duration     time.Duration
	BufferBefore time.Duration
	BufferAfter  time.Duration

	// Existing are the buffered windows of non-cancelled appointments
	// intersecting the day, each padded with its own type's buffers.
	Existing []interval.Span

	// Busy are the external calendar's busy intervals for the day.
	Busy []interval.Span

	Location *time.Location
}

// GenerateSlots walks the window in steps of exactly Duration and flags each
// candidate against existing appointments and busy intervals. Buffers pad the
// conflict test only; they never widen the slot or change the step. The scan
// is one pass over all candidates against all intervals, so the caller pays
// for the external busy fetch once per day range, not once per candidate.
//
// Returns slots in chronological order; empty when the window fits no slot.
func GenerateSlots(in GenerateInput) []Slot {
	if in.Duration <= 0 || !in.Window.IsValid() {
		return nil
	}

	var slots []Slot
	for start := in.Window.Start; !start.Add(in.Duration).After(in.Window.End); start = start.Add(in.Duration) {
		end := start.Add(in.Duration)
		padded := interval.Span{Start: start, End: end}.Pad(in.BufferBefore, in.BufferAfter)

		available := true
		for _, w := range in.Existing {
			if padded.Overlaps(w) {
				available = false
				break
			}
		}
		if available {
			for _, b := range in.Busy {
				if padded.Overlaps(b) {
					available = false
					break
				}
			}
		}

		slots = append(slots, Slot{
			Start:      start,
			End:        end,
			StartLocal: timeutil.InstantToLocalDisplay(start, in.Location),
			EndLocal:   timeutil.InstantToLocalDisplay(end, in.Location),
			Available:  available,
		})
	}
	return slots
}
