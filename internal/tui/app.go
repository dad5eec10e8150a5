// internal/tui/app.go
//
// This is the terminal inspector for a computed plan. It uses bubbletea,
// which follows The Elm Architecture:
//
// 1. Model: the plan, the replayed world states and the step list
// 2. Update: a function that updates state based on messages
// 3. View: a function that renders state to a string
//
// The left pane lists the steps; the right pane shows the world after the
// selected step, marking facts that step changed and goal facts now held.

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/goap-planner/internal/action"
	"github.com/kingrea/goap-planner/internal/planner"
	"github.com/kingrea/goap-planner/internal/scenario"
	"github.com/kingrea/goap-planner/internal/world"
)

const (
	minPaneWidth  = 24
	defaultWidth  = 100
	defaultHeight = 24
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	headStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	changedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F5C542"))
	goalStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

// stepItem implements list.Item for one plan step.
type stepItem struct {
	index int
	name  string
	cost  float64
}

func (i stepItem) Title() string       { return fmt.Sprintf("%d. %s", i.index+1, i.name) }
func (i stepItem) Description() string { return fmt.Sprintf("cost %g", i.cost) }
func (i stepItem) FilterValue() string { return i.name }

// App is the inspector model.
type App struct {
	title  string
	plan   planner.Plan
	goal   world.Conditions
	states []world.State // states[0] is the start; states[i+1] follows step i
	steps  list.Model
	width  int
	height int
}

// NewApp replays plan against the problem's catalog and prepares the view.
// It fails when a step is unknown or not applicable, which means the plan
// does not belong to the problem.
func NewApp(title string, problem scenario.Problem, plan planner.Plan) (*App, error) {
	if problem.Catalog == nil {
		return nil, fmt.Errorf("tui: problem has no catalog")
	}
	states := make([]world.State, 0, plan.Len()+1)
	states = append(states, problem.Start)
	items := make([]list.Item, 0, plan.Len())
	current := problem.Start
	for i, name := range plan.Actions {
		act, ok := problem.Catalog.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("tui: step %d: unknown action %q", i+1, name)
		}
		if !action.Applicable(act, current) {
			return nil, fmt.Errorf("tui: step %d: %s is not applicable", i+1, name)
		}
		current = action.Apply(act, current)
		states = append(states, current)
		items = append(items, stepItem{index: i, name: name, cost: act.Cost})
	}
	steps := list.New(items, list.NewDefaultDelegate(), 0, 0)
	steps.Title = "Plan"
	steps.SetShowHelp(false)
	a := &App{
		title:  title,
		plan:   plan,
		goal:   problem.Goal,
		states: states,
		steps:  steps,
	}
	a.resize(defaultWidth, defaultHeight)
	return a, nil
}

// Run starts the bubbletea program on the alternate screen.
func Run(app *App) error {
	_, err := tea.NewProgram(app, tea.WithAltScreen()).Run()
	return err
}

func (a *App) Init() tea.Cmd {
	return nil
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		return a, nil
	case tea.KeyMsg:
		if a.steps.FilterState() != list.Filtering {
			switch msg.String() {
			case "q", "ctrl+c":
				return a, tea.Quit
			}
		}
	}
	var cmd tea.Cmd
	a.steps, cmd = a.steps.Update(msg)
	return a, cmd
}

func (a *App) View() string {
	leftWidth, rightWidth := a.paneWidths()
	header := titleStyle.Render(a.title) + "  " + mutedStyle.Render(a.summary())
	var left string
	if a.plan.Len() == 0 {
		left = mutedStyle.Render("Goal already satisfied; no steps.")
	} else {
		left = a.steps.View()
	}
	leftBox := boxStyle.Width(leftWidth).Render(left)
	rightBox := boxStyle.Width(rightWidth).Render(a.renderDetail(a.selected()))
	body := lipgloss.JoinHorizontal(lipgloss.Top, leftBox, rightBox)
	footer := mutedStyle.Render("↑/↓ select step • / filter • q quit")
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

// selected returns the plan step shown in the detail pane, or -1 for the
// start state when the plan is empty.
func (a *App) selected() int {
	if a.plan.Len() == 0 {
		return -1
	}
	item, ok := a.steps.SelectedItem().(stepItem)
	if !ok {
		return 0
	}
	return item.index
}

func (a *App) summary() string {
	return fmt.Sprintf("%d steps • cost %g • %d expansions", a.plan.Len(), a.plan.Cost, a.plan.Expansions)
}

// renderDetail draws the world after step (or the start state for -1).
func (a *App) renderDetail(step int) string {
	before := a.states[0]
	after := a.states[0]
	heading := "Start state"
	if step >= 0 {
		before = a.states[step]
		after = a.states[step+1]
		heading = fmt.Sprintf("After %s", a.plan.Actions[step])
	}
	changed := make(map[string]bool)
	if step >= 0 {
		for _, fact := range before.Diff(after) {
			changed[fact] = true
		}
	}
	lines := []string{headStyle.Render(heading)}
	for _, b := range after.Bindings() {
		line := fmt.Sprintf("  %s: %t", b.ID, b.Val)
		want, inGoal := a.goal.Value(b.ID)
		switch {
		case changed[b.ID]:
			line = changedStyle.Render("* " + strings.TrimPrefix(line, "  "))
		case inGoal && want == b.Val:
			line = goalStyle.Render(line)
		}
		if inGoal && want == b.Val {
			line += goalStyle.Render("  ✓ goal")
		}
		lines = append(lines, line)
	}
	met := a.goal.Len() - after.Mismatch(a.goal)
	lines = append(lines, "", mutedStyle.Render(fmt.Sprintf("goal facts satisfied: %d/%d", met, a.goal.Len())))
	return strings.Join(lines, "\n")
}

func (a *App) resize(width, height int) {
	a.width = width
	a.height = height
	leftWidth, _ := a.paneWidths()
	a.steps.SetSize(leftWidth, max(4, height-4))
}

func (a *App) paneWidths() (int, int) {
	total := a.width - 4
	left := max(minPaneWidth, total/3)
	right := max(minPaneWidth, total-left-4)
	return left, right
}
