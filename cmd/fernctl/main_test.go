package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/bunji"
	"github.com/Ramsey-B/fern/pkg/casefile"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestBunjiCommand(t *testing.T) {
	out, err := execute(t, "bunji", "산 0316-02")
	require.NoError(t, err)

	var n bunji.Number
	require.NoError(t, json.Unmarshal([]byte(out), &n))
	assert.Equal(t, bunji.Number{Main: "316", Sub: "2"}, n)
}

func TestDongCommand(t *testing.T) {
	out, err := execute(t, "dong", "대치동")
	require.NoError(t, err)

	var forms []string
	require.NoError(t, json.Unmarshal([]byte(out), &forms))
	assert.Contains(t, forms, "대치동")
	assert.Contains(t, forms, "대치")
}

func TestNameCommandRequiresArgument(t *testing.T) {
	_, err := execute(t, "name")
	assert.Error(t, err)
}

func TestRunCommand(t *testing.T) {
	t.Chdir(t.TempDir())

	path := filepath.Join(t.TempDir(), "cases.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
cases:
  - name: block mismatch
    query:
      api_name: 래미안 2단지
    candidates:
      - id: 1
        name: 래미안 3단지
    expect:
      status: vetoed
`), 0o600))

	out, err := execute(t, "run", "--parallel", "1", path)
	require.NoError(t, err)

	var report casefile.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 1, report.Passed)
	assert.Equal(t, 0, report.Failed)

	require.NoError(t, os.WriteFile(path, []byte(`
cases:
  - query:
      api_name: 래미안 2단지
    candidates:
      - id: 1
        name: 래미안 3단지
    expect:
      status: matched
`), 0o600))

	_, err = execute(t, "run", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 cases failed")
}
