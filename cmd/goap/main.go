package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kingrea/goap-planner/internal/config"
	"github.com/kingrea/goap-planner/internal/logging"
)

// cli carries the state shared by every subcommand once the root command has
// loaded the project.
type cli struct {
	project string
	verbose bool

	cfg    *config.Config
	logger *logging.Logger
}

func main() {
	root, c := newRootCmd()
	if err := execute(root, c); err != nil {
		os.Exit(1)
	}
}

// execute runs the command tree and closes the logger afterwards. Cobra skips
// post-run hooks when a command fails, so the close cannot live there.
func execute(root *cobra.Command, c *cli) error {
	err := root.Execute()
	if err != nil {
		c.logger.Error("command failed", zap.Error(err))
	}
	c.close()
	return err
}

func newRootCmd() (*cobra.Command, *cli) {
	c := &cli{}
	root := &cobra.Command{
		Use:   "goap",
		Short: "Goal-oriented action planner",
		Long: `goap finds the cheapest sequence of actions that turns a start state
into one satisfying a goal.

Scenarios are YAML or JSON files listing the start state, the goal and the
available actions. Project settings live in .goap/config.yaml.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.load,
	}
	root.PersistentFlags().StringVar(&c.project, "project", "", "project directory (default: working directory)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log at debug level, including every planner expansion")

	root.AddCommand(
		newInitCmd(c),
		newPlanCmd(c),
		newServeCmd(c),
		newInspectCmd(c),
		newInfoCmd(c),
		newEnabledCmd(c),
		newStepCmd(c),
		newSatisfiedCmd(c),
	)
	return root, c
}

func (c *cli) close() {
	if c.logger == nil {
		return
	}
	_ = c.logger.Close()
	c.logger = nil
}

// load resolves the project directory, reads its config and opens the log.
func (c *cli) load(cmd *cobra.Command, args []string) error {
	project := strings.TrimSpace(c.project)
	if project == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("determine working directory: %w", err)
		}
		project = wd
	}
	abs, err := filepath.Abs(project)
	if err != nil {
		return fmt.Errorf("resolve project dir: %w", err)
	}
	c.project = abs

	cfg, err := config.NewConfig(abs)
	if err != nil {
		return err
	}
	c.cfg = cfg

	level := cfg.LogLevel()
	if c.verbose {
		level = "debug"
	}
	logger, err := logging.New(abs, level)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	c.logger = logger.With(zap.String("command", cmd.Name()))
	c.logger.Debug("project loaded", zap.String("project", abs), zap.String("config", cfg.ProjectConfigPath()))
	return nil
}

func newInitCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the .goap directory with a default config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.InitDir(c.project); err != nil {
				return fmt.Errorf("init %s: %w", config.GoapDir, err)
			}
			c.logger.Info("project initialized", zap.String("project", c.project))
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized %s\n", filepath.Join(c.project, config.GoapDir))
			return nil
		},
	}
}

// factFlag collects repeatable --set fact=bool overrides.
type factFlag map[string]bool

func (f *factFlag) String() string {
	if f == nil || len(*f) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(*f))
	for key, value := range *f {
		pairs = append(pairs, fmt.Sprintf("%s=%t", key, value))
	}
	return strings.Join(pairs, ", ")
}

func (f *factFlag) Set(value string) error {
	parts := strings.SplitN(value, "=", 2)
	if len(parts) != 2 {
		return fmt.Errorf("expected fact=bool, got %q", value)
	}
	key := strings.TrimSpace(parts[0])
	if key == "" {
		return fmt.Errorf("fact name is empty in %q", value)
	}
	val, err := strconv.ParseBool(strings.TrimSpace(parts[1]))
	if err != nil {
		return fmt.Errorf("fact %s: %q is not a boolean", key, parts[1])
	}
	if *f == nil {
		*f = factFlag{}
	}
	(*f)[key] = val
	return nil
}

func (f *factFlag) Type() string {
	return "fact=bool"
}
