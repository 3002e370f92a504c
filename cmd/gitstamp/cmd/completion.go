// Copyright © 2019 One Concern

package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

const bash = "bash"
const zsh = "zsh"

// completionCmd represents the completion command
var completionCmd = &cobra.Command{
	Use:   "completion SHELL",
	Short: "generate completions for the gitstamp command",
	Long: `Generate completions for your shell

	For bash add the following line to your ~/.bashrc

		eval "$(gitstamp completion bash)"

	For zsh add generate a file:

		gitstamp completion zsh > /usr/local/share/zsh/site-functions/_gitstamp

	`,
	ValidArgs: []string{bash, zsh},
	Args:      cobra.OnlyValidArgs,

	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			wrapFatalln("specify a shell to generate completions for bash or zsh", nil)
			return
		}
		var err error
		switch args[0] {
		case bash:
			err = rootCmd.GenBashCompletion(os.Stdout)
		case zsh:
			err = rootCmd.GenZshCompletion(os.Stdout)
		}
		if err != nil {
			wrapFatalln("failed to generate "+args[0]+" completion", err)
		}
	},
}

func init() {
	completionCmd.Hidden = true
	rootCmd.AddCommand(completionCmd)
}
