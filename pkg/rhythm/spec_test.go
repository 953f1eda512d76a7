package rhythm_test

import (
	"testing"

	"github.com/jamloop/jamloop/pkg/rhythm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpecDefaults(t *testing.T) {
	s := rhythm.NewSpec()
	assert.Equal(t, 16, s.Beats())
	assert.Equal(t, 4, s.Hits())
	assert.Equal(t, 0, s.Shift())
	assert.Equal(t, 120, s.BPM())
	assert.Equal(t, "x...x...x...x...", s.Pattern().String())
}

func TestSpecSettersSaturate(t *testing.T) {
	s := rhythm.NewSpec()

	s.SetBeats(100)
	assert.Equal(t, 16, s.Beats())
	s.SetBeats(0)
	assert.Equal(t, 1, s.Beats())

	s.SetBeats(8)
	s.SetHits(127)
	assert.Equal(t, 8, s.Hits())
	s.SetHits(-3)
	assert.Equal(t, 0, s.Hits())

	s.SetShift(127)
	assert.Equal(t, 8, s.Shift())

	s.SetBPM(1000)
	assert.Equal(t, 300, s.BPM())
	s.SetBPM(0)
	assert.Equal(t, 30, s.BPM())
}

func TestSpecShrinkingBeatsReclampsHitsAndShift(t *testing.T) {
	s := rhythm.NewSpec()
	s.SetBeats(16)
	s.SetHits(12)
	s.SetShift(10)

	s.SetBeats(4)
	assert.Equal(t, 4, s.Beats())
	assert.Equal(t, 4, s.Hits())
	assert.Equal(t, 4, s.Shift())
	require.Len(t, s.Pattern(), 4)
}

func TestSpecPatternTracksEveryChange(t *testing.T) {
	s := rhythm.NewSpec()

	s.SetBeats(8)
	s.SetHits(5)
	assert.Equal(t, "x.xx.x.x", s.Pattern().String())

	s.SetShift(3)
	assert.Equal(t, "x.x.xx.x", s.Pattern().String())

	s.SetHits(0)
	assert.Equal(t, "........", s.Pattern().String())
	assert.Equal(t, 0, s.Pattern().Hits())
}
