// Package applicability evaluates ApplicabilityRules against a TimeGrid,
// producing the boolean masks charge allocators consume.
package applicability

import (
	"time"

	"github.com/raterudder/billcore/internal/timegrid"
	"github.com/raterudder/billcore/internal/types"
)

// EvaluateRule emits a mask of length |grid.Intervals|, true where every
// clause of rule matches that interval's local start.
func EvaluateRule(grid *timegrid.Grid, rule types.ApplicabilityRule) []bool {
	mask := make([]bool, len(grid.Intervals))
	for i, iv := range grid.Intervals {
		mask[i] = ruleMatches(rule, iv)
	}
	return mask
}

// EvaluateCharge OR-composes the masks of every rule in rules. A charge
// with no rules applies to every interval.
func EvaluateCharge(grid *timegrid.Grid, rules []types.ApplicabilityRule) []bool {
	mask := make([]bool, len(grid.Intervals))
	if len(rules) == 0 {
		for i := range mask {
			mask[i] = true
		}
		return mask
	}
	for _, rule := range rules {
		for i, iv := range grid.Intervals {
			if mask[i] {
				continue
			}
			if ruleMatches(rule, iv) {
				mask[i] = true
			}
		}
	}
	return mask
}

func ruleMatches(rule types.ApplicabilityRule, iv timegrid.Interval) bool {
	return periodOfDayMatches(rule, iv.LocalStart) &&
		monthDayMatches(rule, iv.LocalStart) &&
		rule.DayClassApplies(iv.DayClass)
}

func periodOfDayMatches(rule types.ApplicabilityRule, localStart time.Time) bool {
	if rule.SpansEntireDay() {
		return true
	}
	t := timeOfDay(localStart)
	return t >= rule.PeriodStartTimeLocal && t < rule.PeriodEndTimeLocal
}

func timeOfDay(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())
}

func monthDayMatches(rule types.ApplicabilityRule, localStart time.Time) bool {
	if rule.AppliesStartMD == nil || rule.AppliesEndMD == nil {
		return true
	}
	md := types.MonthDay{Month: localStart.Month(), Day: localStart.Day()}
	return md.InWindow(*rule.AppliesStartMD, *rule.AppliesEndMD)
}
