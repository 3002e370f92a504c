// Copyright © 2019 One Concern

package cmd

import (
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/oneconcern/gitstamp/pkg/config"
	"github.com/oneconcern/gitstamp/pkg/dlogger"
	"github.com/oneconcern/gitstamp/pkg/graph"
	"github.com/oneconcern/gitstamp/pkg/ledger"
	"github.com/oneconcern/gitstamp/pkg/tsp"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gitstamp",
	Short: "gitstamp records trusted timestamps of git commits",
	Long: `gitstamp obtains an RFC 3161 timestamp for the head of the current branch
and records the proof on a ledger branch, e.g. "timestamps/master" for "master".

Without a subcommand, gitstamp appends a timestamp for the current branch head.
This is what the post-commit hook installed by "gitstamp hook install" runs.

The ledger may be verified at any time with "gitstamp verify <commit>".
`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runAppend()
	},
}

var (
	// filesystem used to read the config file and the trust anchor, and to install hooks
	appFs = afero.NewOsFs()

	// HTTP client used to reach the authority. Tests replace it to trust a local authority.
	httpClient = http.DefaultClient

	settings   *config.Config
	configFile string
	configErr  error
	logger     = zap.NewNop()
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(errOutput, err)
		osExit(exitGeneric)
	}
}

func init() {
	addRepoPathFlag(rootCmd)
	addLogLevel(rootCmd)
	addAuthorityURLFlag(rootCmd)
	addCertificateFlag(rootCmd)
	addInsecureFlag(rootCmd)
	addPrefixFlag(rootCmd)

	log.SetFlags(0)
	cobra.OnInitialize(initConfig)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	v := viper.New()
	config.Setup(v, appFs)

	settings, configFile, configErr = nil, "", nil
	if configFile, configErr = config.Read(v); configErr != nil {
		return
	}
	settings, configErr = config.New(v)
}

// requireSettings applies command line overrides to the settings, then validates them.
//
// Settings to reach the authority are only required when appending.
func requireSettings(appending bool) bool {
	if configErr != nil {
		wrapFatalln("invalid configuration", configErr)
		return false
	}

	f := gitstampFlags.root
	if f.logLevel != "" {
		settings.LogLevel = f.logLevel
	}
	if f.url != "" {
		settings.Authority.URL = f.url
	}
	if f.certificate != "" {
		settings.Authority.Certificate = f.certificate
	}
	if f.insecure {
		settings.Authority.Insecure = true
	}
	if f.prefix != "" {
		settings.Ledger.Prefix = f.prefix
	}

	if err := settings.Validate(appending); err != nil {
		wrapFatalln("invalid configuration", err)
		return false
	}

	var err error
	if logger, err = dlogger.GetLogger(settings.LogLevel); err != nil {
		wrapFatalln("failed to set log level", err)
		return false
	}
	if configFile != "" {
		logger.Debug("using config file", zap.String("file", configFile))
	}
	return true
}

func repoPath() string {
	if gitstampFlags.root.repoPath == "" {
		return "."
	}
	return gitstampFlags.root.repoPath
}

func openRepo() (*graph.Repo, bool) {
	repo, err := graph.Open(repoPath(), graph.Signature(settings.Ledger.Author.Name, settings.Ledger.Author.Email))
	if err != nil {
		wrapFatalln("failed to open repository", err)
		return nil, false
	}
	return repo, true
}

// openLedger opens the ledger of the repository.
//
// The authority client is only built when appending.
func openLedger(appending bool) (*ledger.Ledger, bool) {
	repo, ok := openRepo()
	if !ok {
		return nil, false
	}

	anchor, err := settings.Anchor(appFs)
	if err != nil {
		wrapFatalln("failed to load trust anchor", err)
		return nil, false
	}

	var authority ledger.Authority
	if appending {
		client, erc := tsp.NewClient(settings.Authority.URL,
			tsp.HTTPClient(httpClient),
			tsp.AllowInsecure(settings.Authority.Insecure),
			tsp.Logger(logger),
		)
		if erc != nil {
			wrapFatalln("failed to configure timestamp authority", erc)
			return nil, false
		}
		authority = client
	}

	l, err := ledger.New(repo, authority,
		ledger.Anchor(anchor),
		ledger.Prefix(settings.Ledger.Prefix),
		ledger.Logger(logger),
	)
	if err != nil {
		wrapFatalln("failed to open ledger", err)
		return nil, false
	}
	return l, true
}
