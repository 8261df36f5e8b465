package errors

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocWatchError_Error(t *testing.T) {
	assert.Equal(t, "config: configuration invalid", New(CategoryConfig, "configuration invalid").Error())
	assert.Equal(t, "filesystem: read failed: file not found",
		Wrap(fmt.Errorf("file not found"), CategoryFileSystem, "read failed").Error())
}

func TestCategorySurvivesWrapping(t *testing.T) {
	base := ReadFailed("/tmp/x.tex", 6, os.ErrNotExist)
	wrapped := fmt.Errorf("session: %w", base)

	assert.True(t, IsCategory(wrapped, CategoryFileSystem))
	assert.False(t, IsCategory(wrapped, CategoryConfig))
	assert.False(t, IsCategory(fmt.Errorf("plain"), CategoryInternal))
	assert.ErrorIs(t, wrapped, os.ErrNotExist)
	assert.Equal(t, 6, base.Context["attempts"])
	assert.Equal(t, []string{"attempts", "path"}, base.ContextKeys())
}

func TestCLIErrorAdapter_ExitCodes(t *testing.T) {
	a := NewCLIErrorAdapter(false, nil)
	cases := []struct {
		err  error
		code int
	}{
		{nil, 0},
		{NoInputs(), 2},
		{MixedToolchains([]string{".a.tex.swp", ".b.md.swp"}), 2},
		{ConfigInvalid("cfg.yaml", fmt.Errorf("bad")), 7},
		{ReadFailed("x.tex", 6, os.ErrNotExist), 11},
		{AuxDirFailed("/tmp/aux", os.ErrPermission), 11},
		{InternalError("boom", nil), 10},
		{fmt.Errorf("plain"), 1},
	}
	for _, c := range cases {
		assert.Equal(t, c.code, a.ExitCodeFor(c.err), "%v", c.err)
	}
}

func TestCLIErrorAdapter_UsageErrorsAreNotLogged(t *testing.T) {
	var logs, out bytes.Buffer
	a := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil))).WithOutput(&out)
	code := a.Report(InvalidArguments("latex", fmt.Errorf("unknown flag --bogus")))

	require.Equal(t, 2, code)
	assert.Equal(t, "invalid arguments: unknown flag --bogus\n", out.String())
	assert.Empty(t, logs.String())
}

func TestCLIErrorAdapter_Report(t *testing.T) {
	var logs, out bytes.Buffer
	a := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil))).WithOutput(&out)

	code := a.Report(ReadFailed("/tmp/x.tex", 6, os.ErrNotExist))

	assert.Equal(t, 11, code)
	assert.Contains(t, out.String(), "watched file could not be read")
	assert.Contains(t, logs.String(), "category=filesystem")
	assert.Contains(t, logs.String(), "path=/tmp/x.tex")

	out.Reset()
	assert.Equal(t, 1, a.Report(fmt.Errorf("plain")))
	assert.Equal(t, "Error: plain\n", out.String())
}
