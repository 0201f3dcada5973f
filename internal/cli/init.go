package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Pochyxi/e2ereport/internal/workspace"
)

var initForce bool

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing files")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Bootstrap a config file, the workspace folders and an example suite",
	Long: `Writes the effective configuration to the --config path, creates the
suites, fixtures, reports, traces, archive and logs folders, and adds an
example suite and storage fixture. Existing files are kept unless --force.`,
	Args: usageArgs(cobra.NoArgs),
	RunE: runInit,
}

const exampleSuite = `{
  "info": {
    "name": "Example",
    "runType": "test",
    "runName": "Open home page",
    "browsers": ["chrome"]
  },
  "tests": {
    "Open home page": {
      "description": "Opens the home page and seeds the session.",
      "preRequisite": "The site is reachable.",
      "testStep": [
        {
          "actionName": "land-on-page",
          "stepName": "open the home page",
          "args": { "url": "https://example.com" }
        },
        {
          "actionName": "initialize-storage",
          "stepName": "seed session storage",
          "args": { "storageType": "session", "storageConfigName": "example" }
        },
        {
          "actionName": "check",
          "stepName": "heading is shown",
          "args": { "selector": "h1", "delay": 1 }
        }
      ]
    }
  }
}
`

const exampleFixture = `{
  "locale": "en-US",
  "user": { "id": 1, "name": "demo" }
}
`

func runInit(cmd *cobra.Command, args []string) error {
	c := cfg
	if c.Project == "" {
		c.Project = "Example"
	}
	dirs := c.Dirs()

	var created []string
	for _, dir := range []string{dirs.Suites, dirs.Fixtures} {
		if err := os.MkdirAll(dir, workspace.DirPerm); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := workspace.EnsureDirs(dirs); err != nil {
		return err
	}

	data, err := c.YAML()
	if err != nil {
		return fmt.Errorf("render config: %w", err)
	}
	files := []struct {
		path    string
		content string
	}{
		{flagConfig, string(data)},
		{filepath.Join(dirs.Suites, "Example.json"), exampleSuite},
		{dirs.FixturePath("example"), exampleFixture},
	}
	for _, f := range files {
		wrote, err := writeIfMissing(f.path, f.content)
		if err != nil {
			return err
		}
		if wrote {
			created = append(created, f.path)
		}
	}

	w := cmd.OutOrStdout()
	if len(created) == 0 {
		fmt.Fprintln(w, "Nothing to do: all files already exist (use --force to overwrite).")
		return nil
	}
	for _, p := range created {
		fmt.Fprintf(w, "created %s\n", p)
	}
	return nil
}

func writeIfMissing(path, content string) (bool, error) {
	if !initForce {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}
