package schema

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrSumExceedsTotal is the single cross-field failure the dashboard reports.
// The text is the exact message shown to the user.
var ErrSumExceedsTotal = errors.New("Sum of passed, failed, and skipped test cases cannot exceed total test cases")

var structural = validator.New()

// Validate checks a candidate state, possibly partial, against the full schema:
// structural rules (enum membership, non-negative counts, widget shapes) plus
// the overall testCases invariant. The same function backs both the live
// controller check and the persistence boundary so the two cannot drift.
//
// Widgets carry no cross-field rule relating their own total to the sum of
// parts; only the overall group is constrained.
func Validate(s DashboardState) error {
	if err := structural.Struct(s); err != nil {
		return fmt.Errorf("structural validation: %w", err)
	}
	return CheckTestCaseTotals(s.TestCases)
}

// CheckTestCaseTotals applies the cross-field invariant to the overall counter
// group: with total set alongside at least one part, passed+failed+skipped
// must not exceed total. Absent parts count as zero, and a zero total never
// trips the rule (only a positive total constrains the sum).
func CheckTestCaseTotals(tc TestCaseData) error {
	if tc.Total == nil {
		return nil
	}
	if tc.Passed == nil && tc.Failed == nil && tc.Skipped == nil {
		return nil
	}
	sum := intValue(tc.Passed) + intValue(tc.Failed) + intValue(tc.Skipped)
	if *tc.Total > 0 && sum > *tc.Total {
		return ErrSumExceedsTotal
	}
	return nil
}

func intValue(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
