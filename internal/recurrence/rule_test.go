package recurrence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strptr(s string) *string { return &s }
func intptr(n int) *int       { return &n }

func weeklyRule(t *testing.T, anchor string, dow int) Rule {
	t.Helper()
	return Rule{Kind: Weekly, Interval: 1, Anchor: mustDate(t, anchor), DayOfWeek: dow}
}

func TestParseKind(t *testing.T) {
	for input, want := range map[string]Kind{
		"one-time": OneTime, "none": OneTime, "": OneTime,
		"daily": Daily, "weekly": Weekly, "bi-weekly": BiWeekly,
		"monthly": Monthly, "quarterly": Quarterly,
	} {
		got, err := ParseKind(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}
	_, err := ParseKind("fortnightly")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestKindRoundTrip(t *testing.T) {
	for _, k := range []Kind{OneTime, Daily, Weekly, BiWeekly, Monthly, Quarterly} {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
}

func TestOccursOnOneTime(t *testing.T) {
	rule := Rule{Kind: OneTime, Anchor: mustDate(t, "2024-06-03")}
	assert.True(t, rule.OccursOn(mustDate(t, "2024-06-03")))
	assert.False(t, rule.OccursOn(mustDate(t, "2024-06-02")))
	assert.False(t, rule.OccursOn(mustDate(t, "2024-06-04")))
}

func TestOccursOnDaily(t *testing.T) {
	end := mustDate(t, "2024-06-10")
	rule := Rule{Kind: Daily, Anchor: mustDate(t, "2024-06-01"), End: &end}
	assert.False(t, rule.OccursOn(mustDate(t, "2024-05-31")))
	assert.True(t, rule.OccursOn(mustDate(t, "2024-06-01")))
	assert.True(t, rule.OccursOn(mustDate(t, "2024-06-05")))
	// end date is inclusive
	assert.True(t, rule.OccursOn(mustDate(t, "2024-06-10")))
	assert.False(t, rule.OccursOn(mustDate(t, "2024-06-11")))
}

func TestWeeklyEffectiveAnchorAdvancesForward(t *testing.T) {
	// anchor 2024-01-03 is a Wednesday but the rule wants Mondays; the
	// series must start on the first Monday on/after the anchor
	rule := weeklyRule(t, "2024-01-03", 1)

	assert.Equal(t, "2024-01-08", FormatDate(rule.EffectiveAnchor()))

	assert.False(t, rule.OccursOn(mustDate(t, "2024-01-03")))
	assert.False(t, rule.OccursOn(mustDate(t, "2024-01-01"))) // Monday before anchor
	assert.True(t, rule.OccursOn(mustDate(t, "2024-01-08")))
	assert.True(t, rule.OccursOn(mustDate(t, "2024-01-15")))
	assert.True(t, rule.OccursOn(mustDate(t, "2024-01-22")))
	assert.False(t, rule.OccursOn(mustDate(t, "2024-01-09")))
}

func TestWeeklyAlignedAnchor(t *testing.T) {
	rule := weeklyRule(t, "2024-06-03", 1) // a Monday
	assert.Equal(t, "2024-06-03", FormatDate(rule.EffectiveAnchor()))
	assert.True(t, rule.OccursOn(mustDate(t, "2024-06-03")))
	assert.True(t, rule.OccursOn(mustDate(t, "2024-06-10")))
	assert.False(t, rule.OccursOn(mustDate(t, "2024-06-04")))
}

func TestBiWeeklySpacing(t *testing.T) {
	rule := Rule{Kind: BiWeekly, Interval: 1, Anchor: mustDate(t, "2024-06-03"), DayOfWeek: 1}
	a := rule.EffectiveAnchor()

	for _, offset := range []int{0, 14, 28} {
		assert.True(t, rule.OccursOn(AddDays(a, offset)), "A+%d", offset)
	}
	for _, offset := range []int{7, 21} {
		assert.False(t, rule.OccursOn(AddDays(a, offset)), "A+%d", offset)
	}
}

func TestMonthlyLiteralDayOfMonth(t *testing.T) {
	rule := Rule{Kind: Monthly, Anchor: mustDate(t, "2024-01-31")}

	assert.True(t, rule.OccursOn(mustDate(t, "2024-01-31")))
	assert.True(t, rule.OccursOn(mustDate(t, "2024-03-31")))
	// February has no 31st: the month is skipped, not clamped
	assert.False(t, rule.OccursOn(mustDate(t, "2024-02-29")))
	assert.False(t, rule.OccursOn(mustDate(t, "2024-04-30")))
}

func TestMonthlyMidMonth(t *testing.T) {
	rule := Rule{Kind: Monthly, Anchor: mustDate(t, "2024-01-15")}
	assert.True(t, rule.OccursOn(mustDate(t, "2024-02-15")))
	assert.True(t, rule.OccursOn(mustDate(t, "2025-01-15")))
	assert.False(t, rule.OccursOn(mustDate(t, "2024-02-14")))
	assert.False(t, rule.OccursOn(mustDate(t, "2023-12-15")))
}

func TestQuarterlySpacing(t *testing.T) {
	rule := Rule{Kind: Quarterly, Anchor: mustDate(t, "2024-01-15")}
	assert.True(t, rule.OccursOn(mustDate(t, "2024-01-15")))
	assert.True(t, rule.OccursOn(mustDate(t, "2024-04-15")))
	assert.True(t, rule.OccursOn(mustDate(t, "2024-07-15")))
	assert.False(t, rule.OccursOn(mustDate(t, "2024-02-15")))
	assert.False(t, rule.OccursOn(mustDate(t, "2024-03-15")))
}

func TestEndDateBoundary(t *testing.T) {
	end := mustDate(t, "2024-06-17")
	rule := Rule{Kind: Weekly, Anchor: mustDate(t, "2024-06-03"), DayOfWeek: 1, End: &end}
	assert.True(t, rule.OccursOn(end))
	assert.False(t, rule.OccursOn(AddDays(end, 1)))
	assert.False(t, rule.OccursOn(AddDays(end, 7)))
}

func TestNextOccurrence(t *testing.T) {
	rule := weeklyRule(t, "2024-06-03", 1)

	next, ok := rule.NextOccurrence(mustDate(t, "2024-06-05"))
	require.True(t, ok)
	assert.Equal(t, "2024-06-10", FormatDate(next))

	// before the anchor the first occurrence is the anchor itself
	next, ok = rule.NextOccurrence(mustDate(t, "2024-01-01"))
	require.True(t, ok)
	assert.Equal(t, "2024-06-03", FormatDate(next))

	// past the end date there is nothing left
	end := mustDate(t, "2024-06-10")
	rule.End = &end
	_, ok = rule.NextOccurrence(mustDate(t, "2024-06-11"))
	assert.False(t, ok)
}

func TestNormalizeRuleNewShape(t *testing.T) {
	rule, err := NormalizeRule(RuleParams{
		Type:          "weekly",
		Interval:      1,
		ItemStartDate: strptr("2024-06-03"),
		ItemEndDate:   strptr("2024-08-26"),
		DayOfWeek:     intptr(1),
	})
	require.NoError(t, err)
	assert.Equal(t, Weekly, rule.Kind)
	assert.Equal(t, "2024-06-03", FormatDate(rule.Anchor))
	require.NotNil(t, rule.End)
	assert.Equal(t, "2024-08-26", FormatDate(*rule.End))
	assert.Equal(t, 1, rule.DayOfWeek)
}

func TestNormalizeRuleLegacyStartDate(t *testing.T) {
	// old rows stored the anchor in start_date with no item_start_date
	rule, err := NormalizeRule(RuleParams{
		Type:      "weekly",
		StartDate: strptr("2024-06-04"),
		DayOfWeek: intptr(2),
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-06-04", FormatDate(rule.Anchor))
	assert.Equal(t, 2, rule.DayOfWeek)
	assert.Nil(t, rule.End)
}

func TestNormalizeRuleTargetDateWins(t *testing.T) {
	rule, err := NormalizeRule(RuleParams{
		Type:       "one-time",
		TargetDate: strptr("2024-07-01"),
		StartDate:  strptr("2024-06-01"),
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-07-01", FormatDate(rule.Anchor))
}

func TestNormalizeRuleDerivesDayOfWeek(t *testing.T) {
	rule, err := NormalizeRule(RuleParams{
		Type:          "weekly",
		ItemStartDate: strptr("2024-06-04"), // a Tuesday
	})
	require.NoError(t, err)
	assert.Equal(t, 2, rule.DayOfWeek)
}

func TestNormalizeRuleInconsistentDayOfWeekResolved(t *testing.T) {
	// day_of_week says Monday but the anchor is a Wednesday; the rule is
	// kept and the effective anchor advances to the next Monday
	rule, err := NormalizeRule(RuleParams{
		Type:          "weekly",
		ItemStartDate: strptr("2024-01-03"),
		DayOfWeek:     intptr(1),
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-01-08", FormatDate(rule.EffectiveAnchor()))
}

func TestNormalizeRuleRejects(t *testing.T) {
	_, err := NormalizeRule(RuleParams{Type: "weekly"})
	assert.ErrorIs(t, err, ErrInvalidDateFormat)

	_, err = NormalizeRule(RuleParams{Type: "weekly", ItemStartDate: strptr("not-a-date")})
	assert.ErrorIs(t, err, ErrInvalidDateFormat)

	_, err = NormalizeRule(RuleParams{
		Type:          "daily",
		ItemStartDate: strptr("2024-06-10"),
		ItemEndDate:   strptr("2024-06-01"),
	})
	assert.Error(t, err)

	_, err = NormalizeRule(RuleParams{Type: "hourly", ItemStartDate: strptr("2024-06-01")})
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestNormalizeRuleOneTimeDropsEndDate(t *testing.T) {
	rule, err := NormalizeRule(RuleParams{
		Type:       "one-time",
		TargetDate: strptr("2024-06-03"),
		// stray end date on a one-time row
		ItemEndDate: strptr("2024-06-30"),
	})
	require.NoError(t, err)
	assert.Nil(t, rule.End)
}
