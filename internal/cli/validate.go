package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Pochyxi/e2ereport/internal/suite"
)

var scenariosJSON bool

func init() {
	scenariosCmd.Flags().BoolVar(&scenariosJSON, "json", false, "Print as JSON")
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(scenariosCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate [suite.json]",
	Short: "Check a suite file for problems without running it",
	Long: `Loads the suite (the configured project's file by default) and reports
unknown run types and actions, unknown browsers, missing run targets and
steps missing the arguments their action needs. Exits 1 on any problem.`,
	Args: usageArgs(cobra.MaximumNArgs(1)),
	RunE: runValidate,
}

var scenariosCmd = &cobra.Command{
	Use:   "scenarios [suite.json]",
	Short: "List the scenarios of a suite",
	Args:  usageArgs(cobra.MaximumNArgs(1)),
	RunE:  runScenarios,
}

// suitePath is the explicit argument, or the configured project's file.
func suitePath(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if cfg.Project == "" {
		return "", usageError{fmt.Errorf("no suite given: pass a path or set a project")}
	}
	return cfg.SuitePath(), nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	path, err := suitePath(args)
	if err != nil {
		return err
	}
	s, err := suite.Load(path)
	if err != nil {
		return err
	}
	problems := s.Check()
	w := cmd.OutOrStdout()
	if len(problems) == 0 {
		fmt.Fprintf(w, "OK: %s (%d scenarios)\n", path, len(s.Entries()))
		return nil
	}
	for _, p := range problems {
		fmt.Fprintln(w, p.String())
	}
	fmt.Fprintf(w, "%d problem(s) in %s\n", len(problems), path)
	return errFailed
}

func runScenarios(cmd *cobra.Command, args []string) error {
	path, err := suitePath(args)
	if err != nil {
		return err
	}
	s, err := suite.Load(path)
	if err != nil {
		return err
	}
	entries := s.Entries()
	w := cmd.OutOrStdout()
	if scenariosJSON {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
		return nil
	}
	for _, e := range entries {
		name := e.Name
		if e.Chapter != "" {
			name = e.Chapter + "/" + e.Name
		}
		fmt.Fprintf(w, "%-40s %d step(s)\n", name, e.Steps)
	}
	return nil
}
