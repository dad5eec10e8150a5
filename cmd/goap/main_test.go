package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/goap-planner/internal/config"
	"github.com/kingrea/goap-planner/internal/logging"
	"github.com/kingrea/goap-planner/internal/scenario"
)

const lumberjackYAML = `
id: lumberjack
goal: [{id: hasWood, val: true}]
state: [{id: hasAxe, val: false}, {id: atTree, val: false}]
actions:
  - id: goToTree
    post: [{id: atTree, val: true}]
  - id: pickUpAxe
    post: [{id: hasAxe, val: true}]
  - id: chopTree
    pre: [{id: atTree, val: true}, {id: hasAxe, val: true}]
    post: [{id: hasWood, val: true}]
`

const stuckYAML = `
id: stuck
goal: [{id: flying, val: true}]
actions:
  - id: jump
    post: [{id: airborne, val: true}]
`

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root, c := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := execute(root, c)
	require.Nil(t, c.logger, "logger left open")
	return out.String(), err
}

func writeScenario(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestFactFlag(t *testing.T) {
	var f factFlag
	require.NoError(t, f.Set("hasAxe=true"))
	require.NoError(t, f.Set(" atTree = FALSE"))
	require.Equal(t, factFlag{"hasAxe": true, "atTree": false}, f)
	require.Error(t, f.Set("hasAxe"))
	require.Error(t, f.Set("=true"))
	require.Error(t, f.Set("hasAxe=maybe"))
	require.Equal(t, "fact=bool", f.Type())
}

func TestInitCreatesProjectDir(t *testing.T) {
	project := t.TempDir()
	out, err := runCLI(t, "init", "--project", project)
	require.NoError(t, err)
	require.Contains(t, out, "Initialized")
	_, err = os.Stat(filepath.Join(project, config.GoapDir, "config.yaml"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(project, config.GoapDir, "logs", logging.FileName))
	require.NoError(t, err)
}

func TestPlanUsesConfiguredScenariosDir(t *testing.T) {
	project := t.TempDir()
	writeScenario(t, project, filepath.Join(config.DefaultScenariosDir, "lumberjack.yaml"), lumberjackYAML)
	out, err := runCLI(t, "plan", "--project", project)
	require.NoError(t, err)
	require.Contains(t, out, "lumberjack")
	require.Contains(t, out, "3 steps, cost 3")
	require.Contains(t, out, "1. goToTree\n  2. pickUpAxe\n  3. chopTree")
}

func TestInitThenPlan(t *testing.T) {
	project := t.TempDir()
	_, err := runCLI(t, "init", "--project", project)
	require.NoError(t, err)
	writeScenario(t, filepath.Join(project, config.GoapDir, "scenarios"), "l.yaml", lumberjackYAML)

	out, err := runCLI(t, "plan", "--project", project)
	require.NoError(t, err)
	require.Contains(t, out, "3 steps, cost 3")
}

func TestPlanMissingExplicitPath(t *testing.T) {
	project := t.TempDir()
	missing := filepath.Join(project, "nowhere.yaml")
	_, err := runCLI(t, "plan", missing, "--project", project)
	require.Error(t, err)
	require.Equal(t, 1, strings.Count(err.Error(), missing))
}

func TestFailedCommandIsLogged(t *testing.T) {
	project := t.TempDir()
	path := writeScenario(t, project, "stuck.yaml", stuckYAML)
	_, err := runCLI(t, "plan", path, "--project", project)
	require.Error(t, err)

	data, err := os.ReadFile(filepath.Join(project, config.GoapDir, "logs", logging.FileName))
	require.NoError(t, err)
	require.Contains(t, string(data), "plan failed")
	require.Contains(t, string(data), "command failed")
}

func TestQueryCommands(t *testing.T) {
	project := t.TempDir()
	path := writeScenario(t, project, "lumberjack.yaml", lumberjackYAML)

	out, err := runCLI(t, "enabled", path, "--project", project)
	require.NoError(t, err)
	require.Equal(t, "lumberjack: goToTree, pickUpAxe\n", out)

	out, err = runCLI(t, "enabled", path, "--project", project, "--json", "--set", "hasAxe=true", "--set", "atTree=true")
	require.NoError(t, err)
	var enabled enabledResult
	require.NoError(t, json.Unmarshal([]byte(out), &enabled))
	require.Equal(t, []string{"goToTree", "pickUpAxe", "chopTree"}, enabled.Enabled)

	out, err = runCLI(t, "step", path, "goToTree", "--project", project)
	require.NoError(t, err)
	require.Contains(t, out, "atTree: true")
	require.Contains(t, out, "hasAxe: false")

	out, err = runCLI(t, "step", path, "chopTree", "--project", project, "--json")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not enabled")
	var step stepResult
	require.NoError(t, json.Unmarshal([]byte(out), &step))
	require.False(t, step.Enabled)
	require.Nil(t, step.State)

	_, err = runCLI(t, "step", path, "fly", "--project", project)
	require.ErrorIs(t, err, scenario.ErrUnknownAction)

	out, err = runCLI(t, "satisfied", path, "--project", project)
	require.NoError(t, err)
	require.Contains(t, out, "goal not satisfied")

	out, err = runCLI(t, "satisfied", path, "--project", project, "--json", "--set", "hasWood=true")
	require.NoError(t, err)
	var satisfied satisfiedResult
	require.NoError(t, json.Unmarshal([]byte(out), &satisfied))
	require.True(t, satisfied.Satisfied)
}

func TestPlanAppliesOverrides(t *testing.T) {
	project := t.TempDir()
	path := writeScenario(t, project, "lumberjack.yaml", lumberjackYAML)
	out, err := runCLI(t, "plan", path, "--project", project, "--set", "hasAxe=true", "--set", "atTree=true")
	require.NoError(t, err)
	require.Contains(t, out, "1 steps")
	require.Contains(t, out, "1. chopTree")
}

func TestPlanJSONReportsFailures(t *testing.T) {
	project := t.TempDir()
	dir := filepath.Join(project, "batch")
	writeScenario(t, dir, "a.yaml", lumberjackYAML)
	writeScenario(t, dir, "b.yaml", stuckYAML)
	out, err := runCLI(t, "plan", dir, "--project", project, "--json", "--parallel", "2")
	require.Error(t, err)
	require.Contains(t, err.Error(), "1 of 2 scenarios failed")

	var results []planResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	require.Equal(t, "lumberjack", results[0].Scenario)
	require.Equal(t, []string{"goToTree", "pickUpAxe", "chopTree"}, results[0].Plan)
	require.Equal(t, "succeeded", results[0].Status)
	require.Equal(t, 3, results[0].TotalSteps)
	require.Equal(t, []scenario.Var{{ID: "hasAxe"}, {ID: "atTree"}, {ID: "hasWood"}}, results[0].InitialState)
	require.Equal(t, []scenario.Var{{ID: "hasAxe", Val: true}, {ID: "atTree", Val: true}, {ID: "hasWood", Val: true}}, results[0].FinalState)
	require.Equal(t, "stuck", results[1].Scenario)
	require.Equal(t, "failed", results[1].Status)
	require.Contains(t, results[1].Error, "no plan")
	require.Equal(t, []string{}, results[1].Plan)
	require.Zero(t, results[1].TotalSteps)
	require.Nil(t, results[1].FinalState)
}

func TestPlanExpansionFlag(t *testing.T) {
	project := t.TempDir()
	path := writeScenario(t, project, "lumberjack.yaml", lumberjackYAML)
	out, err := runCLI(t, "plan", path, "--project", project, "--max-expansions", "1")
	require.Error(t, err)
	require.Contains(t, out, "expansion limit")
}

func TestPlanWithoutScenarios(t *testing.T) {
	_, err := runCLI(t, "plan", "--project", t.TempDir())
	require.Error(t, err)
	require.Contains(t, err.Error(), "no scenario files")
}

func TestInfoJSON(t *testing.T) {
	out, err := runCLI(t, "info", "--json", "--project", t.TempDir())
	require.NoError(t, err)
	require.Contains(t, out, `"id":"goap-planner"`)
}

func TestBuildInspector(t *testing.T) {
	project := t.TempDir()
	path := writeScenario(t, project, "lumberjack.yaml", lumberjackYAML)
	c := &cli{project: project}
	cmd := &cobra.Command{Use: "inspect"}
	require.NoError(t, c.load(cmd, nil))
	defer c.close()

	app, err := buildInspector(cmd, c, &planBudget{maxExpansions: -1}, path)
	require.NoError(t, err)
	require.True(t, strings.Contains(app.View(), "After goToTree"))

	stuck := writeScenario(t, project, "stuck.yaml", stuckYAML)
	_, err = buildInspector(cmd, c, &planBudget{maxExpansions: -1}, stuck)
	require.Error(t, err)
}
