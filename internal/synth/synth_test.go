package synth_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/jamloop/jamloop/internal/synth"
	"github.com/stretchr/testify/assert"
)

func TestSinkTracksHeldNotes(t *testing.T) {
	s := synth.New(slog.New(slog.NewTextHandler(io.Discard, nil)))

	s.Press(64)
	s.Press(60)
	s.Press(60) // re-press is idempotent
	assert.Equal(t, []uint8{60, 64}, s.Active())

	s.Release(60)
	assert.Equal(t, []uint8{64}, s.Active())

	s.Release(21) // releasing an unheld note is a no-op
	assert.Equal(t, []uint8{64}, s.Active())

	s.Press(72)
	s.Panic()
	assert.Empty(t, s.Active())
}
