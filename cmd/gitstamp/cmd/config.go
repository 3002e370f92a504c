package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oneconcern/gitstamp/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Commands to manage the config file",
	Long: `Commands to manage the config file of gitstamp.

The config file is looked up as gitstamp.yaml in the current directory,
then in $HOME/.gitstamp and /etc/gitstamp. GITSTAMP_CONFIG points to an explicit file.
Any setting may be overridden by an environment variable, e.g. GITSTAMP_AUTHORITY_URL.
`,
}

var configCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a config file",
	Long: `Create a config file from the current settings and command line flags.

The authority URL and certificate are required.
`,
	Example: `gitstamp config create --url https://freetsa.org/tsr --certificate ~/freetsa-cacert.pem`,
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if !requireSettings(true) {
			return
		}
		if gitstampFlags.config.name != "" {
			settings.Ledger.Author.Name = gitstampFlags.config.name
		}
		if gitstampFlags.config.email != "" {
			settings.Ledger.Author.Email = gitstampFlags.config.email
		}

		if _, err := settings.Anchor(appFs); err != nil {
			wrapFatalln("invalid trust anchor", err)
			return
		}

		path := gitstampFlags.config.path
		if path == "" {
			var err error
			if path, err = config.DefaultPath(); err != nil {
				wrapFatalln("failed to locate config file", err)
				return
			}
		}
		if err := config.Write(appFs, path, settings); err != nil {
			wrapFatalln("failed to write config file", err)
			return
		}
		infoLogger.Printf("config file created in %s", path)
	},
}

func init() {
	addConfigPathFlag(configCreateCmd)
	addAuthorNameFlag(configCreateCmd)
	addAuthorEmailFlag(configCreateCmd)
	configCmd.AddCommand(configCreateCmd)
	rootCmd.AddCommand(configCmd)
}
