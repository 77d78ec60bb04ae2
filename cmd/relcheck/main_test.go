package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const demoScript = `CREATE TABLE student(student_id INT, name VARCHAR);
CREATE TABLE enrolled(student_id INT, grade INT);
SELECT s.name, s.student_id + 1 AS next_id FROM student AS s`

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	r := &runner{stdin: strings.NewReader(stdin), stdout: &stdout, stderr: &stderr}
	err := r.app().Run(append([]string{"relcheck", "--no-color"}, args...))
	if err != nil {
		r.printError(err)
	}
	return stdout.String(), stderr.String(), err
}

func TestCheckCommandRendersSchema(t *testing.T) {
	out, _, err := runCLI(t, "", "check", "-q", demoScript)
	require.NoError(t, err)
	want := strings.Join([]string{
		"s (2 column(s))",
		"column  | type",
		"------- | -------",
		"name    | VARCHAR",
		"next_id | INT",
		"",
	}, "\n")
	assert.Equal(t, want, out)
}

func TestCheckCommandReadsFileAndStdin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.sql")
	require.NoError(t, os.WriteFile(path, []byte(demoScript), 0o644))

	fromFile, _, err := runCLI(t, "", "check", path)
	require.NoError(t, err)
	fromStdin, _, err := runCLI(t, demoScript, "check")
	require.NoError(t, err)
	assert.Equal(t, fromFile, fromStdin)

	_, _, err = runCLI(t, "", "check", "-q", demoScript, path)
	require.Error(t, err)

	_, _, err = runCLI(t, "", "check", filepath.Join(t.TempDir(), "missing.sql"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read script")
}

func TestCheckCommandJSON(t *testing.T) {
	out, _, err := runCLI(t, "", "check", "--json", "-q", demoScript)
	require.NoError(t, err)

	var decoded struct {
		Result struct {
			Name    string `json:"name"`
			Columns []struct {
				Name string `json:"name"`
				Type string `json:"type"`
			} `json:"columns"`
		} `json:"result"`
		Statements int `json:"statements"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "s", decoded.Result.Name)
	assert.Equal(t, 3, decoded.Statements)
	require.Len(t, decoded.Result.Columns, 2)
	assert.Equal(t, "next_id", decoded.Result.Columns[1].Name)
	assert.Equal(t, "INT", decoded.Result.Columns[1].Type)
}

func TestTablesCommand(t *testing.T) {
	out, _, err := runCLI(t, "", "tables", "-q", demoScript)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Defined: enrolled, student\n"), out)
	assert.Contains(t, out, "enrolled (2 column(s))")
	assert.Contains(t, out, "Result: s (2 column(s))")
}

func TestErrorsReportKind(t *testing.T) {
	cases := []struct {
		name   string
		script string
		kind   string
	}{
		{name: "parse", script: "SELECT FROM", kind: "error[parse]:"},
		{name: "missing name", script: "student AS s", kind: "error[name_missing]:"},
		{name: "type mismatch", script: "CREATE TABLE t(a INT); SELECT x.a FROM t AS x WHERE x.a", kind: "error[type_mismatch]:"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, stderr, err := runCLI(t, "", "check", "-q", tc.script)
			require.Error(t, err)
			assert.True(t, strings.HasPrefix(stderr, tc.kind), stderr)
		})
	}
}

func TestCacheSizeFlag(t *testing.T) {
	_, _, err := runCLI(t, "", "--cache-size", "-1", "check", "-q", demoScript)
	require.Error(t, err)

	t.Setenv("RELCHECK_CACHE_SIZE", "4")
	_, _, err = runCLI(t, "", "check", "-q", demoScript)
	require.NoError(t, err)
}
