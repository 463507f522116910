package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/warexec"
	"github.com/meigma/warexec/internal/testutil"
	"github.com/meigma/warexec/loader"
)

func writeWar(t *testing.T, entries ...testutil.Entry) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.war")
	require.NoError(t, os.WriteFile(path, testutil.BuildWar(t, "com.example.Main", entries...), 0o600))
	return path
}

// recorder defines com.example.Main as a program that records its arguments.
func recorder(t *testing.T, got *[]string, result error) *loader.Registry {
	t.Helper()
	programs := loader.NewRegistry()
	require.NoError(t, programs.RegisterFunc("com.example.Main", func(_ context.Context, args []string) error {
		*got = args
		return result
	}))
	return programs
}

func TestNormalizeArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{name: "empty", args: nil, want: []string{"--"}},
		{name: "program args only", args: []string{"-x", "y"}, want: []string{"--", "-x", "y"}},
		{name: "legacy form", args: []string{"-war", "app.war", "a", "-b"}, want: []string{"--war", "app.war", "--", "a", "-b"}},
		{name: "legacy form without args", args: []string{"-war", "app.war"}, want: []string{"--war", "app.war", "--"}},
		{name: "flag without value", args: []string{"-war"}, want: []string{"-war"}},
		{name: "legacy flag not first", args: []string{"a", "-war", "app.war"}, want: []string{"--", "a", "-war", "app.war"}},
		{name: "modern form", args: []string{"--war", "app.war", "a"}, want: []string{"--war", "app.war", "--", "a"}},
		{name: "equals form", args: []string{"--war=app.war", "--log-level=debug", "--help"}, want: []string{"--war=app.war", "--log-level=debug", "--", "--help"}},
		{name: "explicit dash dash", args: []string{"--war", "app.war", "--", "--war", "x"}, want: []string{"--war", "app.war", "--", "--war", "x"}},
		{name: "inspect", args: []string{"--log-level", "info", "--inspect", "--members", "app.war"}, want: []string{"inspect", "--log-level", "info", "--members", "app.war"}},
		{name: "inspect after program args", args: []string{"a", "--inspect"}, want: []string{"--", "a", "--inspect"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NormalizeArgs(tt.args))
		})
	}
}

func TestExecute_PassesArgsVerbatim(t *testing.T) {
	t.Parallel()

	path := writeWar(t, testutil.Class("com.example.Main", nil))

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{name: "after dash dash", args: []string{"--war", path, "--", "-x", "y"}, want: []string{"-x", "y"}},
		{name: "legacy form", args: []string{"-war", path, "--port", "8080"}, want: []string{"--port", "8080"}},
		{name: "flags after first argument", args: []string{"--war", path, "serve", "--log-level", "x"}, want: []string{"serve", "--log-level", "x"}},
		{name: "no arguments", args: []string{"--war", path}, want: []string{}},
		{name: "flag-like arguments", args: []string{"--war", path, "-x", "y"}, want: []string{"-x", "y"}},
		{name: "subcommand name", args: []string{"--war", path, "inspect", "y"}, want: []string{"inspect", "y"}},
		{name: "help flag", args: []string{"--war", path, "--help"}, want: []string{"--help"}},
		{name: "equals form", args: []string{"--war=" + path, "-h"}, want: []string{"-h"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var got []string
			err := Execute(context.Background(), tt.args,
				WithDefiner(recorder(t, &got, nil)),
				WithStderr(&bytes.Buffer{}),
			)
			require.NoError(t, err)
			assert.Equal(t, tt.want, append([]string{}, got...))
		})
	}
}

func TestExecute_HostProgramsFirst(t *testing.T) {
	t.Parallel()

	path := writeWar(t, testutil.Class("com.example.Main", nil))
	var fromHost, fromArchive []string
	err := Execute(context.Background(), []string{"--war", path, "--", "x"},
		WithHost(recorder(t, &fromHost, nil), nil),
		WithDefiner(recorder(t, &fromArchive, nil)),
		WithStderr(&bytes.Buffer{}),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, fromHost)
	assert.Nil(t, fromArchive)
}

//nolint:paralleltest // uses t.Setenv
func TestExecute_WarFromEnvironment(t *testing.T) {
	path := writeWar(t, testutil.Class("com.example.Main", nil))
	t.Setenv(EnvWar, path)
	t.Setenv(EnvLogLevel, "debug")

	var got []string
	var stderr bytes.Buffer
	err := Execute(context.Background(), []string{"a"},
		WithDefiner(recorder(t, &got, nil)),
		WithStderr(&stderr),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)
	assert.Contains(t, stderr.String(), "program defined")
}

func TestExecute_Errors(t *testing.T) {
	t.Parallel()

	path := writeWar(t, testutil.Class("com.example.Main", nil))
	appErr := errors.New("application failed")
	var got []string

	err := Execute(context.Background(), []string{"--war", path},
		WithDefiner(recorder(t, &got, appErr)),
		WithStderr(&bytes.Buffer{}),
	)
	assert.Same(t, appErr, err)

	err = Execute(context.Background(), []string{"--war", path}, WithStderr(&bytes.Buffer{}))
	assert.ErrorIs(t, err, warexec.ErrUnlinked)

	err = Execute(context.Background(), []string{"--war", path, "--log-level", "loud"}, WithStderr(&bytes.Buffer{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--log-level")

	err = Execute(context.Background(), []string{"--war", filepath.Join(t.TempDir(), "missing.war")}, WithStderr(&bytes.Buffer{}))
	assert.ErrorIs(t, err, warexec.ErrArchiveFormat)
	assert.ErrorIs(t, err, os.ErrNotExist)

	err = Execute(context.Background(), []string{"--war"}, WithStderr(&bytes.Buffer{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs an argument")
}

type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func (e *exitError) ExitCode() int { return e.code }

func TestMain_ExitCodes(t *testing.T) {
	t.Parallel()

	path := writeWar(t, testutil.Class("com.example.Main", nil))
	var got []string

	var stderr bytes.Buffer
	code := Main(context.Background(), []string{"--war", path},
		WithDefiner(recorder(t, &got, nil)), WithStderr(&stderr))
	assert.Equal(t, 0, code)
	assert.Empty(t, stderr.String())

	stderr.Reset()
	code = Main(context.Background(), []string{"--war", path},
		WithDefiner(recorder(t, &got, &exitError{code: 3})), WithStderr(&stderr))
	assert.Equal(t, 3, code)
	assert.Contains(t, stderr.String(), "exit status 3")

	stderr.Reset()
	code = Main(context.Background(), []string{"--war", path}, WithStderr(&stderr))
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "Error:")
}

func TestInspectCommand(t *testing.T) {
	t.Parallel()

	path := writeWar(t,
		testutil.Class("com.example.Main", []byte("main")),
		testutil.Jar(t, "util.jar", testutil.Store, testutil.Entry{Name: "util/A.class", Data: []byte("a")}),
	)

	var out bytes.Buffer
	root := New(WithStderr(&bytes.Buffer{}))
	root.SetOut(&out)
	root.SetArgs(NormalizeArgs([]string{"--inspect", "--members", path}))
	require.NoError(t, root.Execute())

	report := out.String()
	assert.Contains(t, report, "com.example.Main")
	assert.Contains(t, report, "war://WEB-INF/classes/ (classes)")
	assert.Contains(t, report, "war://WEB-INF/lib/util.jar (library)")
	assert.Contains(t, report, "util/A.class")
	assert.Contains(t, report, "WEB-INF/classes/com/example/Main.class")
	assert.Contains(t, report, "sha256:")

	out.Reset()
	root = New(WithStderr(&bytes.Buffer{}))
	root.SetOut(&out)
	root.SetArgs(NormalizeArgs([]string{"--war", path, "--inspect", "--no-digest"}))
	require.NoError(t, root.Execute())
	assert.NotContains(t, out.String(), "sha256:")
	assert.NotContains(t, out.String(), "util/A.class")
}
