package cmd

import (
	"bytes"
	"context"
	"text/template"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/oneconcern/gitstamp/pkg/ledger"
)

const appendTemplateString = `{{- if .UpToDate -}}
{{ .Branch }}: {{ .Head }} is already timestamped by {{ .Entry }}
{{- else -}}
{{- if .Bootstrapped }}initialized ledger {{ .LedgerBranch }}
{{ end -}}
{{ .LedgerBranch }}: recorded timestamp {{ .Entry }} for {{ .Head }}
{{- if .Approximate }}
{{ warn "no ledger entry found for the merge base: attached to the previous ledger head" }}
{{- end -}}
{{- end }}`

var appendTemplate = template.Must(template.New("append").Funcs(template.FuncMap{
	"warn": func(msg string) string { return color.YellowString("warning: %s", msg) },
}).Parse(appendTemplateString))

var appendCmd = &cobra.Command{
	Use:   "append",
	Short: "Timestamp the head of the current branch",
	Long: `Timestamp the head of the current branch and record the proof on its ledger branch.

The ledger branch is created on first use. The reply of the authority is verified against
the configured trust anchor before anything is recorded.

Exit codes:
  3  HEAD is detached
  4  the current branch is a ledger branch
  5  the ledger branch moved during the append: retry
`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runAppend()
	},
}

func runAppend() {
	if !requireSettings(true) {
		return
	}
	l, ok := openLedger(true)
	if !ok {
		return
	}

	result, err := l.Append(context.Background())
	if err != nil {
		fatalError("failed to append timestamp", err)
		return
	}
	printAppendResult(result)
}

func printAppendResult(result *ledger.AppendResult) {
	var buf bytes.Buffer
	if err := appendTemplate.Execute(&buf, result); err != nil {
		wrapFatalln("executing template", err)
		return
	}
	infoLogger.Println(buf.String())
}

func init() {
	rootCmd.AddCommand(appendCmd)
}
