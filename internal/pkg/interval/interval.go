package interval

import "time"

// Span is a half-open time interval [Start, End).
type Span struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether two spans share any time. Touching endpoints do
// not count as overlap. The test covers all three sub-cases: s starts inside
// other, s ends inside other, or s fully contains other.
func (s Span) Overlaps(other Span) bool {
	return s.Start.Before(other.End) && s.End.After(other.Start)
}

// Pad returns the span widened by the given buffers.
func (s Span) Pad(before, after time.Duration) Span {
	return Span{
		Start: s.Start.Add(-before),
		End:   s.End.Add(after),
	}
}

// IsValid reports whether the span has positive width.
func (s Span) IsValid() bool {
	return s.End.After(s.Start)
}
