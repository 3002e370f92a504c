package cmd

import (
	"github.com/spf13/cobra"
)

type flagsT struct {
	root struct {
		repoPath    string
		logLevel    string
		url         string
		certificate string
		insecure    bool
		prefix      string
	}
	verify struct {
		branch string
		output string
	}
	log struct {
		branch string
		limit  int
	}
	hook struct {
		force bool
	}
	config struct {
		path  string
		name  string
		email string
	}
	core struct {
		Template string
	}
}

var gitstampFlags = flagsT{}

func addRepoPathFlag(cmd *cobra.Command) string {
	const repoPath = "repo"
	cmd.PersistentFlags().StringVarP(&gitstampFlags.root.repoPath, repoPath, "C", ".", "Path to the git repository")
	return repoPath
}

func addLogLevel(cmd *cobra.Command) string {
	const loglevel = "loglevel"
	cmd.PersistentFlags().StringVar(&gitstampFlags.root.logLevel, loglevel, "", "The logging level: debug, info, warn, error or none (default from config: warn)")
	return loglevel
}

func addAuthorityURLFlag(cmd *cobra.Command) string {
	const url = "url"
	cmd.PersistentFlags().StringVar(&gitstampFlags.root.url, url, "", "The URL of the RFC 3161 timestamp authority (overrides authority.url)")
	return url
}

func addCertificateFlag(cmd *cobra.Command) string {
	const certificate = "certificate"
	cmd.PersistentFlags().StringVar(&gitstampFlags.root.certificate, certificate, "",
		"Path to the PEM certificate of the authority's root, used as trust anchor (overrides authority.certificate)")
	return certificate
}

func addInsecureFlag(cmd *cobra.Command) string {
	const insecure = "insecure"
	cmd.PersistentFlags().BoolVar(&gitstampFlags.root.insecure, insecure, false, "Allow a plain http authority URL")
	return insecure
}

func addPrefixFlag(cmd *cobra.Command) string {
	const prefix = "prefix"
	cmd.PersistentFlags().StringVar(&gitstampFlags.root.prefix, prefix, "", "Prefix of the ledger branches (overrides ledger.prefix)")
	return prefix
}

func addBranchFlag(cmd *cobra.Command, target *string) string {
	const branch = "branch"
	cmd.Flags().StringVarP(target, branch, "b", "", "The branch whose ledger is used (defaults to the current branch)")
	return branch
}

func addOutputFlag(cmd *cobra.Command) string {
	const output = "output"
	cmd.Flags().StringVarP(&gitstampFlags.verify.output, output, "o", outputText, "Output format: text, json or yaml")
	return output
}

func addTemplateFlag(cmd *cobra.Command) string {
	const format = "format"
	cmd.Flags().StringVar(&gitstampFlags.core.Template, format, "", "Pretty-print using a Go template (text output only)")
	return format
}

func addLimitFlag(cmd *cobra.Command) string {
	const limit = "limit"
	cmd.Flags().IntVarP(&gitstampFlags.log.limit, limit, "n", 0, "Limit the number of entries listed (0 lists all)")
	return limit
}

func addForceFlag(cmd *cobra.Command) string {
	const force = "force"
	cmd.Flags().BoolVarP(&gitstampFlags.hook.force, force, "f", false, "Overwrite existing hooks")
	return force
}

func addConfigPathFlag(cmd *cobra.Command) string {
	const path = "path"
	cmd.Flags().StringVar(&gitstampFlags.config.path, path, "", "Where to write the config file (defaults to $HOME/.gitstamp/gitstamp.yaml)")
	return path
}

func addAuthorNameFlag(cmd *cobra.Command) string {
	const name = "name"
	cmd.Flags().StringVar(&gitstampFlags.config.name, name, "", "Author name of ledger commits")
	return name
}

func addAuthorEmailFlag(cmd *cobra.Command) string {
	const email = "email"
	cmd.Flags().StringVar(&gitstampFlags.config.email, email, "", "Author email of ledger commits")
	return email
}
