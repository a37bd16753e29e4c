package harness

import (
	"fmt"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// evaluateExpect checks a finished run against the scenario's
// expectations and returns one message per mismatch.
func evaluateExpect(result *Result, exp Expect) []string {
	var failures []string

	if got := result.DeliveredKinds(); !cmp.Equal(exp.Delivered, got, cmpopts.EquateEmpty()) {
		failures = append(failures, fmt.Sprintf("delivered mismatch (-want +got):\n%s",
			cmp.Diff(exp.Delivered, got, cmpopts.EquateEmpty())))
	}

	if exp.FinalState != "" && exp.FinalState != result.FinalState {
		failures = append(failures, fmt.Sprintf("final_state: expected %s, got %s", exp.FinalState, result.FinalState))
	}

	if exp.Phase != "" && exp.Phase != result.Phase {
		failures = append(failures, fmt.Sprintf("phase: expected %s, got %s", exp.Phase, result.Phase))
	}

	if exp.SavedState != nil && *exp.SavedState != result.SavedState {
		failures = append(failures, fmt.Sprintf("saved_state: expected %q, got %q", *exp.SavedState, result.SavedState))
	}

	if !cmp.Equal(exp.Errors, result.Reported, cmpopts.EquateEmpty()) {
		failures = append(failures, fmt.Sprintf("errors: expected [%s], got [%s]",
			strings.Join(exp.Errors, " "), strings.Join(result.Reported, " ")))
	}

	if exp.Redraws != nil && *exp.Redraws != result.Redraws {
		failures = append(failures, fmt.Sprintf("redraws: expected %d, got %d", *exp.Redraws, result.Redraws))
	}

	if exp.PlatformFinishes != nil && *exp.PlatformFinishes != result.PlatformFinishes {
		failures = append(failures, fmt.Sprintf("platform_finishes: expected %d, got %d", *exp.PlatformFinishes, result.PlatformFinishes))
	}

	if exp.MotionAxes != nil && !cmp.Equal(exp.MotionAxes, result.MotionAxes, cmpopts.EquateEmpty()) {
		failures = append(failures, fmt.Sprintf("motion_axes: expected [%s], got [%s]",
			strings.Join(exp.MotionAxes, " "), strings.Join(result.MotionAxes, " ")))
	}

	return failures
}
