package recurrence

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// rruleEvaluator is the default RuleEvaluator, backed by rrule-go. It parses
// the rule together with a synthesized DTSTART line so the anchor participates
// in rule evaluation, and optionally memoizes parsed rule sets.
type rruleEvaluator struct {
	cache *RuleCache
}

func (ev *rruleEvaluator) OccurrencesBetween(rule string, anchor, start, end time.Time, startInclusive bool) ([]time.Time, error) {
	set, err := ev.ruleSet(rule, anchor)
	if err != nil {
		return nil, err
	}

	return set.Between(start, end, startInclusive), nil
}

// ruleSet parses (or fetches from cache) the rrule set for a rule/anchor pair.
func (ev *rruleEvaluator) ruleSet(rule string, anchor time.Time) (*rrule.Set, error) {
	if ev.cache != nil {
		if set, ok := ev.cache.Get(rule, anchor); ok {
			return set, nil
		}
	}

	// Build the full RRULE string for parsing
	dtstart := anchor.UTC().Format("20060102T150405Z")
	fullRRule := fmt.Sprintf("DTSTART:%s\nRRULE:%s", dtstart, rule)

	set, err := rrule.StrToRRuleSet(fullRRule)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RRULE '%s': %w", rule, err)
	}

	if ev.cache != nil {
		ev.cache.Set(rule, anchor, set)
	}

	return set, nil
}
