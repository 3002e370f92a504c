package cmd

import (
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

const hookScript = `#!/bin/sh
# installed by gitstamp
exec gitstamp append
`

// hooks which run gitstamp
var hookNames = []string{"post-commit", "post-rewrite"}

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Commands to manage git hooks",
	Long:  "Commands to manage the git hooks which keep the ledger up to date",
}

var hookInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the git hooks which timestamp new commits",
	Long: `Install post-commit and post-rewrite hooks running "gitstamp append".

Existing hooks are left untouched unless --force is set.
`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if !requireSettings(false) {
			return
		}
		repo, ok := openRepo()
		if !ok {
			return
		}
		gitDir, err := repo.GitDir()
		if err != nil {
			wrapFatalln("failed to locate git directory", err)
			return
		}

		hooksDir := filepath.Join(gitDir, "hooks")
		if err = appFs.MkdirAll(hooksDir, 0o755); err != nil {
			wrapFatalln("failed to create hooks directory", err)
			return
		}

		for _, name := range hookNames {
			hook := filepath.Join(hooksDir, name)
			exists, erx := afero.Exists(appFs, hook)
			if erx != nil {
				wrapFatalln("failed to check hook "+name, erx)
				return
			}
			if exists && !gitstampFlags.hook.force {
				wrapFatalln("hook "+hook+" already exists: use --force to overwrite it", nil)
				return
			}
			if err = afero.WriteFile(appFs, hook, []byte(hookScript), 0o755); err != nil {
				wrapFatalln("failed to write hook "+name, err)
				return
			}
			// WriteFile does not change the mode of an existing file
			if err = appFs.Chmod(hook, 0o755); err != nil {
				wrapFatalln("failed to make hook "+name+" executable", err)
				return
			}
			infoLogger.Printf("installed %s", hook)
		}
	},
}

func init() {
	addForceFlag(hookInstallCmd)
	hookCmd.AddCommand(hookInstallCmd)
	rootCmd.AddCommand(hookCmd)
}
