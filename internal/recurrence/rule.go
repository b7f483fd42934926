package recurrence

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Kind enumerates the supported recurrence patterns.
type Kind int

const (
	OneTime Kind = iota
	Daily
	Weekly
	BiWeekly
	Monthly
	Quarterly
)

var kindNames = map[Kind]string{
	OneTime:   "one-time",
	Daily:     "daily",
	Weekly:    "weekly",
	BiWeekly:  "bi-weekly",
	Monthly:   "monthly",
	Quarterly: "quarterly",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "one-time"
}

// ErrUnknownKind is returned for a recurrence_type value outside the
// supported set.
var ErrUnknownKind = errors.New("unknown recurrence type")

// ParseKind maps a persisted recurrence_type to a Kind. Older rows carry
// "none" or an empty string for non-recurring items; both normalize to
// OneTime.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "", "none", "one-time":
		return OneTime, nil
	case "daily":
		return Daily, nil
	case "weekly":
		return Weekly, nil
	case "bi-weekly":
		return BiWeekly, nil
	case "monthly":
		return Monthly, nil
	case "quarterly":
		return Quarterly, nil
	}
	return OneTime, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Rule describes how a schedule item repeats. Anchor is the first possible
// occurrence; End, when set, is the inclusive upper bound. DayOfWeek
// (ISO, Monday=1) is meaningful for Weekly and BiWeekly rules.
type Rule struct {
	Kind      Kind
	Interval  int
	Anchor    time.Time
	End       *time.Time
	DayOfWeek int
}

// EffectiveAnchor returns the zero point for period arithmetic. For weekly
// and bi-weekly rules whose stored anchor does not fall on DayOfWeek, the
// anchor is advanced forward (never backward) to the first matching weekday
// on or after it. Upstream data entry does not guarantee the two agree.
func (r Rule) EffectiveAnchor() time.Time {
	anchor := Normalize(r.Anchor)
	if r.Kind != Weekly && r.Kind != BiWeekly {
		return anchor
	}
	dow := r.DayOfWeek
	if dow < 1 || dow > 7 {
		dow = WeekdayNumber(anchor)
	}
	shift := (dow - WeekdayNumber(anchor) + 7) % 7
	return AddDays(anchor, shift)
}

// OccursOn reports whether the rule produces an occurrence on date.
func (r Rule) OccursOn(date time.Time) bool {
	date = Normalize(date)
	anchor := Normalize(r.Anchor)
	if date.Before(anchor) {
		return false
	}
	if r.End != nil && date.After(Normalize(*r.End)) {
		return false
	}

	switch r.Kind {
	case OneTime:
		return date.Equal(anchor)
	case Daily:
		return true
	case Weekly, BiWeekly:
		effective := r.EffectiveAnchor()
		daysDiff := DaysBetween(effective, date)
		if daysDiff < 0 {
			return false
		}
		period := 7
		if r.Kind == BiWeekly {
			period = 14
		}
		return daysDiff%period == 0
	case Monthly, Quarterly:
		// literal day-of-month match: an anchor on the 31st skips months
		// without a 31st rather than rolling to month-end
		if date.Day() != anchor.Day() {
			return false
		}
		months := MonthsBetween(anchor, date)
		if months < 0 {
			return false
		}
		if r.Kind == Quarterly {
			return months%3 == 0
		}
		return true
	}
	return false
}

// NextOccurrence returns the first occurrence on or after today, scanning a
// two-year horizon. The caller supplies "today" so results stay
// deterministic under test.
func (r Rule) NextOccurrence(today time.Time) (time.Time, bool) {
	candidate := Normalize(today)
	if anchor := Normalize(r.Anchor); candidate.Before(anchor) {
		candidate = anchor
	}
	for i := 0; i < 732; i++ {
		if r.End != nil && candidate.After(Normalize(*r.End)) {
			return time.Time{}, false
		}
		if r.OccursOn(candidate) {
			return candidate, true
		}
		candidate = AddDays(candidate, 1)
	}
	return time.Time{}, false
}

// RuleParams carries the raw persisted recurrence fields of a scheduler
// item, legacy shapes included. Older rows store the anchor in start_date
// (or target_date on the wire) instead of item_start_date.
type RuleParams struct {
	Type          string
	Interval      int
	StartDate     *string
	TargetDate    *string
	ItemStartDate *string
	ItemEndDate   *string
	DayOfWeek     *int
}

// NormalizeRule folds every persisted shape into one canonical Rule. It is
// the single ingestion point: nothing downstream of it ever sees a legacy
// field name. A DayOfWeek that contradicts the anchor's actual weekday is
// kept (the effective anchor resolves it) but logged, since it means the
// upstream data drifted.
func NormalizeRule(p RuleParams) (Rule, error) {
	kind, err := ParseKind(p.Type)
	if err != nil {
		return Rule{}, err
	}

	anchorStr := firstSet(p.ItemStartDate, p.TargetDate, p.StartDate)
	if anchorStr == "" {
		return Rule{}, fmt.Errorf("%w: missing start date", ErrInvalidDateFormat)
	}
	anchor, err := ParseLocalDate(anchorStr)
	if err != nil {
		return Rule{}, err
	}

	rule := Rule{Kind: kind, Interval: p.Interval, Anchor: anchor}
	if rule.Interval < 1 {
		rule.Interval = 1
	}

	if p.ItemEndDate != nil && *p.ItemEndDate != "" {
		end, err := ParseLocalDate(*p.ItemEndDate)
		if err != nil {
			return Rule{}, err
		}
		if end.Before(anchor) {
			return Rule{}, fmt.Errorf("end date %s precedes start date %s", FormatDate(end), FormatDate(anchor))
		}
		if kind != OneTime {
			rule.End = &end
		}
	}

	switch kind {
	case Weekly, BiWeekly:
		if p.DayOfWeek != nil && *p.DayOfWeek >= 1 && *p.DayOfWeek <= 7 {
			rule.DayOfWeek = *p.DayOfWeek
			if actual := WeekdayNumber(anchor); actual != rule.DayOfWeek {
				log.Warn().
					Str("anchor", FormatDate(anchor)).
					Int("anchor_weekday", actual).
					Int("day_of_week", rule.DayOfWeek).
					Msg("rule day_of_week disagrees with anchor weekday, advancing anchor")
			}
		} else {
			rule.DayOfWeek = WeekdayNumber(anchor)
		}
	default:
		rule.DayOfWeek = WeekdayNumber(anchor)
	}

	return rule, nil
}

func firstSet(candidates ...*string) string {
	for _, c := range candidates {
		if c != nil && *c != "" {
			return *c
		}
	}
	return ""
}
