package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeCommand(root *cobra.Command, args ...string) (stdout, stderr string, err error) {
	var outBuf, errBuf bytes.Buffer
	root.SetOut(&outBuf)
	root.SetErr(&errBuf)
	root.SetArgs(args)
	err = root.Execute()
	return outBuf.String(), errBuf.String(), err
}

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func exitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return -1
}

const signupPage = `<!doctype html><html><body>
<form id="signup" data-fg-validate>
	<input name="email" data-fg-required data-fg-email>
	<input name="age" type="number" min="18">
</form>
</body></html>`

func TestCheckValid(t *testing.T) {
	path := writeTestFile(t, "signup.html", signupPage)
	out, _, err := executeCommand(NewRootCmd("test"), "check", path,
		"--set", "email=me@example.com", "--set", "age=30")
	require.NoError(t, err)
	assert.Equal(t, "form signup: valid\n", out)
}

func TestCheckInvalid(t *testing.T) {
	path := writeTestFile(t, "signup.html", signupPage)
	out, _, err := executeCommand(NewRootCmd("test"), "check", path, "--set", "age=12")
	require.Error(t, err)
	assert.Equal(t, exitValidation, exitCode(err))
	assert.Contains(t, out, "form signup: 2 error(s)")
	assert.Contains(t, out, "email: This field is required. [required, default]")
	assert.Contains(t, out, "age: ")
}

func TestCheckJSON(t *testing.T) {
	path := writeTestFile(t, "signup.html", signupPage)
	out, _, err := executeCommand(NewRootCmd("test"), "check", path, "--format", "json", "--render")
	require.Equal(t, exitValidation, exitCode(err))

	var report checkReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.False(t, report.Valid)
	require.Len(t, report.Forms, 1)
	assert.Equal(t, "signup", report.Forms[0].ID)
	require.Len(t, report.Forms[0].Errors, 1)
	assert.Equal(t, "required", report.Forms[0].Errors[0].Rule)
	assert.Contains(t, report.HTML, `data-fg-error="signup:email"`)
}

func TestCheckCatalogAndStyle(t *testing.T) {
	page := writeTestFile(t, "signup.html", signupPage)
	catalog := writeTestFile(t, "messages.yaml", "messages:\n  required: \"Can't be blank.\"\n")
	out, _, err := executeCommand(NewRootCmd("test"), "check", page,
		"--catalog", catalog, "--style", "bootstrap", "--render")
	require.Equal(t, exitValidation, exitCode(err))
	assert.Contains(t, out, "email: Can't be blank.")
	assert.Contains(t, out, "is-invalid")
}

func TestCheckErrors(t *testing.T) {
	path := writeTestFile(t, "signup.html", signupPage)

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"missing file", []string{"check", filepath.Join(t.TempDir(), "nope.html")}, exitNotFound},
		{"bad set", []string{"check", path, "--set", "novalue"}, exitFailure},
		{"bad format", []string{"check", path, "--format", "xml"}, exitFailure},
		{"bad log level", []string{"check", path, "--log-level", "loud"}, exitFailure},
		{"missing catalog", []string{"check", path, "--catalog", filepath.Join(t.TempDir(), "none.yaml")}, exitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := executeCommand(NewRootCmd("test"), tt.args...)
			assert.Equal(t, tt.code, exitCode(err))
		})
	}

	t.Run("no arguments", func(t *testing.T) {
		_, _, err := executeCommand(NewRootCmd("test"), "check")
		assert.Error(t, err)
	})
}

func TestParseSets(t *testing.T) {
	values, err := parseSets([]string{"a=1", "a=2", "b=", "c=x=y"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, values["a"])
	assert.Equal(t, []string{""}, values["b"])
	assert.Equal(t, "x=y", values.Get("c"))
}

func TestVersion(t *testing.T) {
	out, _, err := executeCommand(NewRootCmd("1.2.3"), "--version")
	require.NoError(t, err)
	assert.Equal(t, "formguard version 1.2.3\n", out)
}

func TestCheckKeepsMarkupState(t *testing.T) {
	path := writeTestFile(t, "prefilled.html", `<!doctype html><html><body>
<form id="f" data-fg-validate>
	<input type="checkbox" name="tos" checked required>
	<input type="radio" name="plan" value="free" required><input type="radio" name="plan" value="pro" checked>
	<select name="langs" multiple required><option selected>go</option><option>rust</option></select>
	<input name="nick" required>
</form>
</body></html>`)

	out, _, err := executeCommand(NewRootCmd("test"), "check", path, "--set", "nick=gopher")
	require.NoError(t, err)
	assert.Equal(t, "form f: valid\n", out)

	out, _, err = executeCommand(NewRootCmd("test"), "check", path)
	require.Error(t, err)
	assert.Equal(t, exitValidation, exitCode(err))
	assert.Contains(t, out, "form f: 1 error(s)")
	assert.Contains(t, out, "nick: ")
	assert.NotContains(t, out, "tos: ")
}
