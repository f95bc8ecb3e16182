package availability

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/openslot/openslot-backend/internal/appointmenttype"
	"github.com/openslot/openslot-backend/internal/business"
	"github.com/openslot/openslot-backend/internal/cache"
	"github.com/openslot/openslot-backend/internal/calendar"
	"github.com/openslot/openslot-backend/internal/pkg/apperror"
	"github.com/openslot/openslot-backend/internal/pkg/interval"
	"github.com/openslot/openslot-backend/internal/pkg/timeutil"
)

// AppointmentWindows exposes the buffered windows of existing non-cancelled
// appointments. Implemented by the booking repository.
type AppointmentWindows interface {
	ListActiveWindows(ctx context.Context, businessID string, from, to time.Time) ([]interval.Span, error)
}

type Service interface {
	// GetSlots computes bookable slots for each date in [from, to]. The
	// returned bool reports whether the result came from the slot cache
	// (single-day requests only).
	GetSlots(ctx context.Context, biz *business.Business, appointmentTypeID, from, to string) ([]DaySlots, *appointmenttype.AppointmentType, bool, error)
}

type service struct {
	repo         Repository
	types        appointmenttype.Service
	appointments AppointmentWindows
	busy         calendar.BusyProvider
	cache        cache.Cache
	logger       hclog.Logger
	slotTTL      time.Duration
	busyTTL      time.Duration
}

func NewService(
	repo Repository,
	types appointmenttype.Service,
	appointments AppointmentWindows,
	busy calendar.BusyProvider,
	c cache.Cache,
	logger hclog.Logger,
	slotTTL, busyTTL time.Duration,
) Service {
	return &service{
		repo:         repo,
		types:        types,
		appointments: appointments,
		busy:         busy,
		cache:        c,
		logger:       logger,
		slotTTL:      slotTTL,
		busyTTL:      busyTTL,
	}
}

func (s *service) GetSlots(ctx context.Context, biz *business.Business, appointmentTypeID, from, to string) ([]DaySlots, *appointmenttype.AppointmentType, bool, error) {
	at, err := s.types.GetForBusiness(ctx, biz.ID, appointmentTypeID)
	if err != nil {
		return nil, nil, false, err
	}

	dates := timeutil.DaysBetween(from, to)
	if len(dates) == 0 {
		return nil, nil, false, ErrInvalidRange
	}

	loc, err := time.LoadLocation(biz.Timezone)
	if err != nil {
		return nil, nil, false, apperror.Wrap(err, ErrInvalidTimezone.Code, ErrInvalidTimezone.Kind, ErrInvalidTimezone.Message)
	}

	// Single-day requests short-circuit on a cache hit, skipping the rule,
	// appointment and busy-interval reads entirely.
	singleDay := len(dates) == 1
	if singleDay {
		if raw, cacheErr := s.cache.Get(ctx, cache.SlotKey(biz.ID, at.ID, dates[0])); cacheErr == nil {
			var day cachedDay
			if json.Unmarshal(raw, &day) == nil {
				return []DaySlots{{Date: dates[0], Slots: day.Slots}}, at, true, nil
			}
		}
	}

	rules, err := s.repo.ListRules(ctx, biz.ID)
	if err != nil {
		return nil, nil, false, apperror.Wrap(err, 500, apperror.KindInternal, "failed to load availability rules")
	}
	overrides, err := s.repo.ListOverrides(ctx, biz.ID, dates[0], dates[len(dates)-1])
	if err != nil {
		return nil, nil, false, apperror.Wrap(err, 500, apperror.KindInternal, "failed to load date overrides")
	}

	rangeStart, _, err := timeutil.DayBounds(dates[0], loc)
	if err != nil {
		return nil, nil, false, ErrInvalidRange
	}
	_, rangeEnd, err := timeutil.DayBounds(dates[len(dates)-1], loc)
	if err != nil {
		return nil, nil, false, ErrInvalidRange
	}

	existing, err := s.appointments.ListActiveWindows(ctx, biz.ID, rangeStart, rangeEnd)
	if err != nil {
		return nil, nil, false, apperror.Wrap(err, 500, apperror.KindInternal, "failed to load existing appointments")
	}

	busyByDate := s.busyByDate(ctx, biz, dates, loc)

	ruleByWeekday := make(map[int]Rule, len(rules))
	for _, rule := range rules {
		ruleByWeekday[rule.Weekday] = rule
	}
	overrideByDate := make(map[string]Override, len(overrides))
	for _, o := range overrides {
		overrideByDate[o.Date] = o
	}

	days := make([]DaySlots, 0, len(dates))
	for _, date := range dates {
		slots := s.generateDay(date, loc, at, ruleByWeekday, overrideByDate, existing, busyByDate[date])
		days = append(days, DaySlots{Date: date, Slots: slots})
	}

	// Only single-day results are cached as a unit, to bound key cardinality
	// and the staleness blast radius of multi-day responses.
	if singleDay {
		if raw, marshalErr := json.Marshal(cachedDay{Slots: days[0].Slots, CachedAt: time.Now()}); marshalErr == nil {
			if cacheErr := s.cache.Set(ctx, cache.SlotKey(biz.ID, at.ID, dates[0]), raw, s.slotTTL); cacheErr != nil {
				s.logger.Warn("slot cache write failed", "stage", "slot_cache", "business_id", biz.ID, "error", cacheErr)
			}
		}
	}

	return days, at, false, nil
}

// busyByDate returns the external busy intervals partitioned per date,
// consulting the per-(business, date) cache first and issuing at most one
// provider call covering the full cache-miss sub-range.
func (s *service) busyByDate(ctx context.Context, biz *business.Business, dates []string, loc *time.Location) map[string][]interval.Span {
	out := make(map[string][]interval.Span, len(dates))

	var misses []string
	for _, date := range dates {
		if raw, err := s.cache.Get(ctx, cache.BusyKey(biz.ID, date)); err == nil {
			var spans []interval.Span
			if json.Unmarshal(raw, &spans) == nil {
				out[date] = spans
				continue
			}
		}
		misses = append(misses, date)
	}
	if len(misses) == 0 || !biz.CalendarConnected {
		return out
	}

	first, _, err := timeutil.DayBounds(misses[0], loc)
	if err != nil {
		return out
	}
	_, last, err := timeutil.DayBounds(misses[len(misses)-1], loc)
	if err != nil {
		return out
	}

	spans, err := s.busy.BusyIntervals(ctx, biz, first, last)
	if err != nil {
		// Degrade: the affected days are treated as free, overstating
		// availability rather than failing the whole request.
		s.logger.Warn("busy interval fetch failed, treating days as free",
			"stage", "busy_fetch", "business_id", biz.ID, "days", len(misses), "error", err)
		return out
	}

	for _, date := range misses {
		dayStart, dayEnd, err := timeutil.DayBounds(date, loc)
		if err != nil {
			continue
		}
		daySpan := interval.Span{Start: dayStart, End: dayEnd}

		bucket := make([]interval.Span, 0, 4)
		for _, span := range spans {
			if span.Overlaps(daySpan) {
				bucket = append(bucket, span)
			}
		}
		out[date] = bucket

		if raw, marshalErr := json.Marshal(bucket); marshalErr == nil {
			if cacheErr := s.cache.Set(ctx, cache.BusyKey(biz.ID, date), raw, s.busyTTL); cacheErr != nil {
				s.logger.Warn("busy cache write failed", "stage", "busy_cache", "business_id", biz.ID, "error", cacheErr)
			}
		}
	}
	return out
}

// generateDay resolves the effective window for one date (override wins over
// the recurring rule) and runs the slot generator.
func (s *service) generateDay(
	date string,
	loc *time.Location,
	at *appointmenttype.AppointmentType,
	ruleByWeekday map[int]Rule,
	overrideByDate map[string]Override,
	existing []interval.Span,
	busy []interval.Span,
) []Slot {
	startHHMM, endHHMM, open := resolveWindow(date, ruleByWeekday, overrideByDate)
	if !open {
		return nil
	}

	windowStart, err := timeutil.LocalWallClockToInstant(date, startHHMM, loc)
	if err != nil {
		s.logger.Warn("invalid availability window", "stage", "window_resolve", "date", date, "error", err)
		return nil
	}
	windowEnd, err := timeutil.LocalWallClockToInstant(date, endHHMM, loc)
	if err != nil {
		s.logger.Warn("invalid availability window", "stage", "window_resolve", "date", date, "error", err)
		return nil
	}

	dayStart, dayEnd, err := timeutil.DayBounds(date, loc)
	if err != nil {
		return nil
	}
	daySpan := interval.Span{Start: dayStart, End: dayEnd}

	dayExisting := make([]interval.Span, 0, len(existing))
	for _, w := range existing {
		if w.Overlaps(daySpan) {
			dayExisting = append(dayExisting, w)
		}
	}

	before, after := at.Buffers()
	return GenerateSlots(GenerateInput{
		Window:       interval.Span{Start: windowStart, End: windowEnd},
		Duration:     at.Duration(),
		BufferBefore: before,
		BufferAfter:  after,
		Existing:     dayExisting,
		Busy:         busy,
		Location:     loc,
	})
}

// resolveWindow picks the effective wall-clock window for a date. An override
// takes precedence over the recurring rule; a non-available override blanks
// the day. An available override without its own times falls back to the
// rule's times.
func resolveWindow(date string, ruleByWeekday map[int]Rule, overrideByDate map[string]Override) (string, string, bool) {
	weekday, err := timeutil.Weekday(date)
	if err != nil {
		return "", "", false
	}

	rule, hasRule := ruleByWeekday[weekday]
	if hasRule && !rule.Available {
		hasRule = false
	}

	if o, ok := overrideByDate[date]; ok {
		if !o.Available {
			return "", "", false
		}
		start, end := "", ""
		if hasRule {
			start, end = rule.StartTime, rule.EndTime
		}
		if o.StartTime != nil {
			start = *o.StartTime
		}
		if o.EndTime != nil {
			end = *o.EndTime
		}
		if start == "" || end == "" {
			return "", "", false
		}
		return start, end, true
	}

	if !hasRule {
		return "", "", false
	}
	return rule.StartTime, rule.EndTime, true
}
