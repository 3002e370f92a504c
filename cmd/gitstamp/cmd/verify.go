package cmd

import (
	"bytes"
	"context"
	"strings"
	"text/template"

	units "github.com/docker/go-units"
	"github.com/fatih/color"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/oneconcern/gitstamp/pkg/ledger"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

const verifyTemplateString = `Commit:  {{ .Commit }}
Branch:  {{ .Branch }} (ledger {{ .LedgerBranch }})
Entry:   {{ .Entry }}
URL:     {{ .URL }}
Payload: {{ humanSize .PayloadSize }}, sha256 {{ .PayloadSHA256 }}
{{ indent .Payload }}
Query:
{{ indent .Query }}
Reply:
{{ indent .Reply }}
{{ if not .AnchorPinned -}}
{{ warn "trust anchor not pinned: the reply was checked against the certificate stored in the entry" }}
{{ end -}}
Checks:
{{- range .Checks }}
  {{ result .Passed }} {{ .Name }}{{ if .Error }}: {{ .Error }}{{ end }}
{{- end }}
Result:  {{ result .Passed }}`

var verifyFuncs = template.FuncMap{
	"humanSize": func(size int) string {
		return units.HumanSize(float64(size))
	},
	"result": func(passed bool) string {
		if passed {
			return color.GreenString("PASS")
		}
		return color.RedString("FAIL")
	},
	"warn": func(msg string) string {
		return color.YellowString("warning: %s", msg)
	},
	"indent": func(text string) string {
		lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
		for i := range lines {
			lines[i] = "    " + lines[i]
		}
		return strings.Join(lines, "\n")
	},
}

var verifyTemplate = template.Must(template.New("verify").Funcs(verifyFuncs).Parse(verifyTemplateString))

var verifyCmd = &cobra.Command{
	Use:   "verify <commit-ish>",
	Short: "Verify the timestamp recorded for a commit",
	Long: `Verify the timestamp recorded for a commit on the ledger of a branch.

The most recent ledger entry which timestamps the commit is checked:
the reply must be signed by the authority stored in the entry and match
both the stored query and the payload naming the commit.

Exit codes:
  2  the verification failed
  6  no timestamp was found for this commit
`,
	Example: `gitstamp verify HEAD
gitstamp verify --branch release/1.0 v1.0.2 --output json
gitstamp verify HEAD --format '{{ .Time }}'`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if !requireSettings(false) {
			return
		}
		l, ok := openLedger(false)
		if !ok {
			return
		}

		report, err := l.Verify(context.Background(), args[0], gitstampFlags.verify.branch)
		if err != nil {
			fatalError("failed to verify timestamp", err)
			return
		}

		if !printReport(report) {
			return
		}
		if !report.Passed {
			wrapFatalWithCodef(exitVerifyFailed, "timestamp verification failed for %s", report.Commit)
		}
	},
}

func printReport(report *ledger.Report) bool {
	var (
		out []byte
		err error
	)

	switch output := gitstampFlags.verify.output; output {
	case outputJSON:
		out, err = jsoniter.MarshalIndent(report, "", "  ")
	case outputYAML:
		out, err = yaml.Marshal(report)
	case outputText, "":
		tmpl := verifyTemplate
		if gitstampFlags.core.Template != "" {
			tmpl, err = template.New("custom").Funcs(verifyFuncs).Parse(gitstampFlags.core.Template)
			if err != nil {
				wrapFatalln("invalid template", err)
				return false
			}
		}
		var buf bytes.Buffer
		err = tmpl.Execute(&buf, report)
		out = buf.Bytes()
	default:
		wrapFatalln("unsupported output format: "+output, nil)
		return false
	}
	if err != nil {
		wrapFatalln("failed to render report", err)
		return false
	}

	infoLogger.Println(strings.TrimRight(string(out), "\n"))
	return true
}

func init() {
	addBranchFlag(verifyCmd, &gitstampFlags.verify.branch)
	addOutputFlag(verifyCmd)
	addTemplateFlag(verifyCmd)
	rootCmd.AddCommand(verifyCmd)
}
