package watch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docwatch/internal/proc"
	"git.home.luguber.info/inful/docwatch/internal/testutil"
)

func TestCommandViewer_Open(t *testing.T) {
	r := &testutil.RecordingRunner{Err: errors.New("exit status 2")}
	v := CommandViewer{Program: "rifle", Runner: r}

	v.Open(context.Background(), "/tmp/aux/thesis.pdf")

	assert.Equal(t, []proc.Command{{Name: "rifle", Args: []string{"/tmp/aux/thesis.pdf"}}}, r.Commands())
}

func TestCommandViewer_SurvivesCancelledContext(t *testing.T) {
	r := &testutil.RecordingRunner{}
	v := CommandViewer{Program: "zathura", Runner: r}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	v.Open(ctx, "/tmp/aux/notes.pdf")

	errs := r.ContextErrors()
	require.Len(t, errs, 1)
	assert.NoError(t, errs[0])
}
