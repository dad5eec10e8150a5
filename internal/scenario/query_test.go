package scenario

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnabledListsApplicableActionsInOrder(t *testing.T) {
	s, err := Parse([]byte(lumberjackYAML))
	require.NoError(t, err)

	names, err := Enabled(s)
	require.NoError(t, err)
	require.Equal(t, []string{"goToTree", "pickUpAxe"}, names)

	names, err = Enabled(s.WithOverrides(map[string]bool{"hasAxe": true, "atTree": true}))
	require.NoError(t, err)
	require.Equal(t, []string{"goToTree", "pickUpAxe", "chopTree"}, names)

	empty, err := Enabled(Scenario{ID: "idle"})
	require.NoError(t, err)
	require.NotNil(t, empty)
	require.Empty(t, empty)
}

func TestStepFiresEnabledAction(t *testing.T) {
	s, err := Parse([]byte(lumberjackYAML))
	require.NoError(t, err)

	next, err := Step(s, "goToTree")
	require.NoError(t, err)
	require.Equal(t, []Var{
		{ID: "hasAxe", Val: false},
		{ID: "atTree", Val: true},
		{ID: "hasWood", Val: false},
	}, next)

	// Not enabled: no state comes back and no error either.
	next, err = Step(s, "chopTree")
	require.NoError(t, err)
	require.Nil(t, next)

	_, err = Step(s, "fly")
	require.True(t, errors.Is(err, ErrUnknownAction), "expected ErrUnknownAction, got %v", err)
}

func TestProblemStepLeavesInputState(t *testing.T) {
	s, err := Parse([]byte(lumberjackYAML))
	require.NoError(t, err)
	problem, err := s.Compile()
	require.NoError(t, err)

	next, ok, err := problem.Step(problem.Start, " pickUpAxe ")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEqual(t, problem.Start, next)
	val, _ := problem.Start.Value("hasAxe")
	require.False(t, val)

	same, ok, err := problem.Step(problem.Start, "chopTree")
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, problem.Start, same)
}

func TestSatisfiedChecksGoal(t *testing.T) {
	s, err := Parse([]byte(lumberjackYAML))
	require.NoError(t, err)

	ok, err := Satisfied(s)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = Satisfied(s.WithOverrides(map[string]bool{"hasWood": true}))
	require.NoError(t, err)
	require.True(t, ok)

	_, err = Satisfied(Scenario{ID: "bad", State: []Var{{ID: "x", Val: true}, {ID: "x", Val: false}}})
	require.Error(t, err)
}

func TestStateVarsFollowsPlan(t *testing.T) {
	s, err := Parse([]byte(lumberjackYAML))
	require.NoError(t, err)
	problem, err := s.Compile()
	require.NoError(t, err)

	final := problem.Start
	for _, name := range []string{"goToTree", "pickUpAxe", "chopTree"} {
		var ok bool
		final, ok, err = problem.Step(final, name)
		require.NoError(t, err)
		require.True(t, ok, "%s should be enabled", name)
	}
	require.True(t, problem.Satisfied(final))
	require.Equal(t, []Var{
		{ID: "hasAxe", Val: true},
		{ID: "atTree", Val: true},
		{ID: "hasWood", Val: true},
	}, StateVars(final))
}
