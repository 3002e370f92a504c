package cmd

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/oneconcern/gitstamp/pkg/config"
	"github.com/oneconcern/gitstamp/pkg/dlogger"
	"github.com/oneconcern/gitstamp/pkg/graph"
	"github.com/oneconcern/gitstamp/pkg/model"
	"github.com/oneconcern/gitstamp/pkg/tsp/tsptest"
)

type ExitMocks struct {
	mock.Mock
	exitStatuses []int
}

func (m *ExitMocks) Fatalf(format string, v ...interface{}) {
	fmt.Printf(format+"\n", v...)
	m.exitStatuses = append(m.exitStatuses, exitGeneric)
}

func (m *ExitMocks) Fatalln(v ...interface{}) {
	fmt.Println(v...)
	m.exitStatuses = append(m.exitStatuses, exitGeneric)
}

func (m *ExitMocks) Exit(code int) {
	m.exitStatuses = append(m.exitStatuses, code)
}

func (m *ExitMocks) fatalCalls() int {
	return len(m.exitStatuses)
}

func (m *ExitMocks) lastStatus() int {
	if len(m.exitStatuses) == 0 {
		return 0
	}
	return m.exitStatuses[len(m.exitStatuses)-1]
}

func NewExitMocks() *ExitMocks {
	exitMocks := ExitMocks{
		exitStatuses: make([]int, 0),
	}
	return &exitMocks
}

func MakeExitMock(m *ExitMocks) func(int) {
	return func(code int) {
		m.Exit(code)
	}
}

var exitMocks *ExitMocks

// cliFixture is a git repository on disk, with a config file pointing to a test authority
type cliFixture struct {
	dir         string
	certificate string
	repo        *graph.Repo
	authority   *tsptest.Authority
	out         *bytes.Buffer
	errs        *bytes.Buffer
}

func setupTests(t *testing.T) *cliFixture {
	t.Helper()

	exitMocks = NewExitMocks()
	osExit = MakeExitMock(exitMocks)
	logFatalln = exitMocks.Fatalln
	logFatalf = exitMocks.Fatalf
	out := new(bytes.Buffer)
	infoLogger.SetOutput(out)
	errs := new(bytes.Buffer)
	errOutput = errs
	t.Cleanup(func() {
		osExit = os.Exit
		logFatalln = log.Fatalln
		logFatalf = log.Fatalf
		httpClient = http.DefaultClient
		infoLogger.SetOutput(os.Stdout)
		errOutput = os.Stderr
	})

	authority := tsptest.New(t)
	httpClient = authority.HTTPClient()

	dir := t.TempDir()
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	repo, err := graph.Open(dir, graph.Signature("tests", "tests@oneconcern.com"))
	require.NoError(t, err)

	etc := t.TempDir()
	certificate := filepath.Join(etc, "cacert.pem")
	require.NoError(t, afero.WriteFile(afero.NewOsFs(), certificate, authority.Anchor(), 0o644))

	configFile := filepath.Join(etc, "gitstamp.yaml")
	require.NoError(t, config.Write(afero.NewOsFs(), configFile, &config.Config{
		Authority: config.Authority{
			URL:         authority.URL(),
			Certificate: certificate,
		},
		Ledger: config.Ledger{
			Prefix: model.DefaultLedgerPrefix,
			Author: config.Author{Name: "gitstamp tests", Email: "tests@oneconcern.com"},
		},
		LogLevel: dlogger.LogLevelDebug,
	}))
	t.Setenv(config.EnvConfig, configFile)

	return &cliFixture{
		dir:         dir,
		certificate: certificate,
		repo:        repo,
		authority:   authority,
		out:         out,
		errs:        errs,
	}
}

// commit adds a commit on top of the current branch
func (f *cliFixture) commit(t *testing.T, content string) plumbing.Hash {
	t.Helper()

	branch, err := f.repo.CurrentBranch()
	require.NoError(t, err)
	ref := graph.BranchRef(branch)
	head, found, err := f.repo.ResolveRef(ref)
	require.NoError(t, err)
	var parents []plumbing.Hash
	if found {
		parents = append(parents, head)
	}

	blob, err := f.repo.WriteBlob([]byte(content))
	require.NoError(t, err)
	tree, err := f.repo.WriteTree([]graph.TreeEntry{graph.File("README.md", blob)})
	require.NoError(t, err)
	id, err := f.repo.CreateCommit(tree, content+"\n", parents...)
	require.NoError(t, err)
	require.NoError(t, f.repo.UpdateRef(ref, id, head))
	return id
}

// run executes a gitstamp command on the fixture repository and returns its output
func (f *cliFixture) run(t *testing.T, args []string, intentMsg string, expectError bool) string {
	t.Helper()
	f.out.Reset()
	f.errs.Reset()
	runCmd(t, append([]string{"-C", f.dir}, args...), intentMsg, expectError)
	return f.out.String()
}

func runCmd(t *testing.T, cmd []string, intentMsg string, expectError bool) {
	t.Helper()
	fatalCallsBefore := exitMocks.fatalCalls()

	gitstampFlags = flagsT{}
	rootCmd.SetArgs(cmd)
	require.NoError(t, rootCmd.Execute(), "error executing '"+strings.Join(cmd, " ")+"' : "+intentMsg)
	if expectError {
		require.Equal(t, fatalCallsBefore+1, exitMocks.fatalCalls(),
			"ran '"+strings.Join(cmd, " ")+"' expecting error and didn't see one in mocks : "+intentMsg)
	} else {
		require.Equal(t, fatalCallsBefore, exitMocks.fatalCalls(),
			"unexpected error in mocks on '"+strings.Join(cmd, " ")+"' : "+intentMsg)
	}
}
