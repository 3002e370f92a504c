package cmd

import (
	"bytes"
	"context"
	"text/template"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const logTemplateString = `{{ id .ID }} {{ .Time.Format "2006-01-02 15:04:05 -0700" }} {{ if .Genesis }}(genesis){{ else }}{{ .Commit }}{{ end }}`

var logFuncs = template.FuncMap{
	"id": func(id string) string { return color.YellowString(id) },
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "List the entries of a ledger",
	Long: `List the entries of the ledger of a branch, most recent first.

Only the first-parent history of the ledger is listed: entries abandoned by a
history rewrite on the main branch are not shown.
`,
	Example: `gitstamp log
gitstamp log --branch master -n 5 --format '{{ .Commit }} {{ .URL }}'`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if !requireSettings(false) {
			return
		}
		l, ok := openLedger(false)
		if !ok {
			return
		}

		tmpl := template.Must(template.New("log").Funcs(logFuncs).Parse(logTemplateString))
		if gitstampFlags.core.Template != "" {
			var err error
			if tmpl, err = template.New("custom").Funcs(logFuncs).Parse(gitstampFlags.core.Template); err != nil {
				wrapFatalln("invalid template", err)
				return
			}
		}

		entries, err := l.Entries(context.Background(), gitstampFlags.log.branch, gitstampFlags.log.limit)
		if err != nil {
			fatalError("failed to list ledger entries", err)
			return
		}

		var buf bytes.Buffer
		for _, e := range entries {
			buf.Reset()
			if err = tmpl.Execute(&buf, e); err != nil {
				wrapFatalln("executing template", err)
				return
			}
			infoLogger.Println(buf.String())
		}
	},
}

func init() {
	addBranchFlag(logCmd, &gitstampFlags.log.branch)
	addLimitFlag(logCmd)
	addTemplateFlag(logCmd)
	rootCmd.AddCommand(logCmd)
}
