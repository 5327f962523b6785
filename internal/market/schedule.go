package market

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

const (
	dateLayout       = "2006-01-02"
	defaultStartTime = "08:00"
	defaultEndTime   = "14:00"
)

// Session is one concrete dated occurrence of a market.
// Day is 0 (Sunday) through 6 (Saturday); dates are YYYY-MM-DD.
type Session struct {
	Day       int    `json:"day"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Recurring bool   `json:"recurring"`
}

// RecurringPattern describes a weekly pattern over a date range.
type RecurringPattern struct {
	SeasonStart string   `json:"seasonStart,omitempty"`
	SeasonEnd   string   `json:"seasonEnd,omitempty"`
	DaysOfWeek  []string `json:"daysOfWeek,omitempty"`
	StartTime   string   `json:"startTime,omitempty"`
	EndTime     string   `json:"endTime,omitempty"`
}

// SpecialDate is a single one-off market date. Times default from the
// parent SpecialDates object when absent.
type SpecialDate struct {
	Date      string `json:"date"`
	StartTime string `json:"startTime,omitempty"`
	EndTime   string `json:"endTime,omitempty"`
}

// SpecialDates lists explicit one-off dates with shared default times.
type SpecialDates struct {
	Dates     []SpecialDate `json:"specialDates"`
	StartTime string        `json:"startTime,omitempty"`
	EndTime   string        `json:"endTime,omitempty"`
}

// Schedule is a tagged variant over the three wire shapes a market
// schedule can arrive in: a pre-normalized session array, a recurring
// weekly pattern, or a list of special dates. Exactly one variant is
// populated; a zero Schedule normalizes to a single default session.
type Schedule struct {
	Sessions  []Session
	Recurring *RecurringPattern
	Special   *SpecialDates
}

// scheduleProbe covers every field the two object shapes can carry.
type scheduleProbe struct {
	SpecialDates []SpecialDate `json:"specialDates"`
	SeasonStart  string        `json:"seasonStart"`
	SeasonEnd    string        `json:"seasonEnd"`
	DaysOfWeek   []string      `json:"daysOfWeek"`
	StartTime    string        `json:"startTime"`
	EndTime      string        `json:"endTime"`
}

// UnmarshalJSON maps the three raw wire shapes onto the variant.
func (s *Schedule) UnmarshalJSON(data []byte) error {
	*s = Schedule{}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	if trimmed[0] == '[' {
		return json.Unmarshal(trimmed, &s.Sessions)
	}

	var probe scheduleProbe
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return err
	}

	if len(probe.SpecialDates) > 0 {
		s.Special = &SpecialDates{
			Dates:     probe.SpecialDates,
			StartTime: probe.StartTime,
			EndTime:   probe.EndTime,
		}
		return nil
	}

	s.Recurring = &RecurringPattern{
		SeasonStart: probe.SeasonStart,
		SeasonEnd:   probe.SeasonEnd,
		DaysOfWeek:  probe.DaysOfWeek,
		StartTime:   probe.StartTime,
		EndTime:     probe.EndTime,
	}
	return nil
}

// MarshalJSON writes back whichever shape the schedule arrived in, so
// stored raw schedules survive round trips unmodified.
func (s Schedule) MarshalJSON() ([]byte, error) {
	switch {
	case s.Sessions != nil:
		return json.Marshal(s.Sessions)
	case s.Special != nil:
		return json.Marshal(struct {
			SpecialDates []SpecialDate `json:"specialDates"`
			StartTime    string        `json:"startTime,omitempty"`
			EndTime      string        `json:"endTime,omitempty"`
		}{s.Special.Dates, s.Special.StartTime, s.Special.EndTime})
	case s.Recurring != nil:
		return json.Marshal(s.Recurring)
	}
	return []byte("{}"), nil
}

// dayIndexes maps lowercase weekday names to 0 (Sunday) – 6 (Saturday).
var dayIndexes = map[string]int{
	"sunday":    0,
	"monday":    1,
	"tuesday":   2,
	"wednesday": 3,
	"thursday":  4,
	"friday":    5,
	"saturday":  6,
}

// dayIndex resolves a weekday name case-insensitively.
// Unknown names report ok=false and are skipped by the expansion.
func dayIndex(name string) (int, bool) {
	idx, ok := dayIndexes[strings.ToLower(strings.TrimSpace(name))]
	return idx, ok
}

// Normalize converts the schedule into a canonical non-empty session
// list, anchoring fallback sessions on the current date.
func (s Schedule) Normalize() []Session {
	return s.NormalizeAt(time.Now())
}

// NormalizeAt is Normalize with an explicit "today" for fallback
// anchoring. It never fails: malformed input degrades to defaults.
func (s Schedule) NormalizeAt(now time.Time) []Session {
	// Already-normalized arrays pass through unchanged.
	if len(s.Sessions) > 0 {
		return s.Sessions
	}

	if s.Special != nil && len(s.Special.Dates) > 0 {
		if sessions := s.normalizeSpecial(); len(sessions) > 0 {
			return sessions
		}
	}

	if s.Recurring != nil && s.Recurring.SeasonStart != "" && s.Recurring.SeasonEnd != "" {
		if sessions := s.normalizeRecurring(); len(sessions) > 0 {
			return sessions
		}
	}

	return []Session{s.defaultSession(now)}
}

// normalizeSpecial emits one session per valid one-off date, each date
// serving as both start and end. Invalid dates are skipped.
func (s Schedule) normalizeSpecial() []Session {
	var sessions []Session
	for _, sd := range s.Special.Dates {
		day, err := time.Parse(dateLayout, sd.Date)
		if err != nil {
			continue
		}

		start := sd.StartTime
		if start == "" {
			start = timeOrDefault(s.Special.StartTime, defaultStartTime)
		}
		end := sd.EndTime
		if end == "" {
			end = timeOrDefault(s.Special.EndTime, defaultEndTime)
		}

		sessions = append(sessions, Session{
			Day:       int(day.Weekday()),
			StartTime: start,
			EndTime:   end,
			StartDate: sd.Date,
			EndDate:   sd.Date,
			Recurring: false,
		})
	}
	return sessions
}

// normalizeRecurring walks every calendar day in the inclusive season
// range and emits a session for each day whose weekday is requested.
// If no day matches (or the range is malformed), a single session
// spanning the whole range stands in.
func (s Schedule) normalizeRecurring() []Session {
	p := s.Recurring

	start, err := time.Parse(dateLayout, p.SeasonStart)
	if err != nil {
		return nil
	}
	end, err := time.Parse(dateLayout, p.SeasonEnd)
	if err != nil || end.Before(start) {
		return nil
	}

	wanted := make(map[int]bool)
	for _, name := range p.DaysOfWeek {
		if idx, ok := dayIndex(name); ok {
			wanted[idx] = true
		}
	}

	startTime := timeOrDefault(p.StartTime, defaultStartTime)
	endTime := timeOrDefault(p.EndTime, defaultEndTime)

	var sessions []Session
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if !wanted[int(d.Weekday())] {
			continue
		}
		date := d.Format(dateLayout)
		sessions = append(sessions, Session{
			Day:       int(d.Weekday()),
			StartTime: startTime,
			EndTime:   endTime,
			StartDate: date,
			EndDate:   date,
			Recurring: true,
		})
	}

	if len(sessions) == 0 {
		sessions = append(sessions, Session{
			Day:       int(start.Weekday()),
			StartTime: startTime,
			EndTime:   endTime,
			StartDate: p.SeasonStart,
			EndDate:   p.SeasonEnd,
			Recurring: true,
		})
	}

	return sessions
}

// defaultSession anchors a single session on "today", keeping whatever
// partial time fields were provided.
func (s Schedule) defaultSession(now time.Time) Session {
	startTime, endTime := defaultStartTime, defaultEndTime
	if s.Recurring != nil {
		startTime = timeOrDefault(s.Recurring.StartTime, startTime)
		endTime = timeOrDefault(s.Recurring.EndTime, endTime)
	}
	if s.Special != nil {
		startTime = timeOrDefault(s.Special.StartTime, startTime)
		endTime = timeOrDefault(s.Special.EndTime, endTime)
	}

	today := now.Format(dateLayout)
	return Session{
		Day:       int(now.Weekday()),
		StartTime: startTime,
		EndTime:   endTime,
		StartDate: today,
		EndDate:   today,
		Recurring: false,
	}
}

// FirstSessionDate returns the earliest session start date, used for
// date-based sorting. Empty only if normalization somehow yields none.
func (m *Market) FirstSessionDate() string {
	sessions := m.Schedule.Normalize()
	if len(sessions) == 0 {
		return ""
	}
	first := sessions[0].StartDate
	for _, sess := range sessions[1:] {
		if sess.StartDate < first {
			first = sess.StartDate
		}
	}
	return first
}

func timeOrDefault(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
