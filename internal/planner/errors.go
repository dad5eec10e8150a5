package planner

import "fmt"

// PlanNotFoundError reports that the reachable state space was exhausted
// without satisfying the goal. It is a normal outcome, not a crash.
type PlanNotFoundError struct {
	Expansions int
}

func (e *PlanNotFoundError) Error() string {
	return fmt.Sprintf("planner: no plan reaches the goal (%d states expanded)", e.Expansions)
}

// PlanCancelledError reports that the caller's context ended mid-search.
type PlanCancelledError struct {
	Expansions int
	Cause      error
}

func (e *PlanCancelledError) Error() string {
	return fmt.Sprintf("planner: search cancelled after %d expansions: %v", e.Expansions, e.Cause)
}

func (e *PlanCancelledError) Unwrap() error {
	return e.Cause
}

// ExpansionLimitError reports that the search hit its expansion budget.
type ExpansionLimitError struct {
	Limit int
}

func (e *ExpansionLimitError) Error() string {
	return fmt.Sprintf("planner: expansion limit %d reached before the goal", e.Limit)
}
