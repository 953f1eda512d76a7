package rhythm_test

import (
	"fmt"
	"testing"

	"github.com/jamloop/jamloop/pkg/rhythm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateReferencePatterns(t *testing.T) {
	type testCase struct {
		beats, hits, shift int
		want               string
	}

	cases := []testCase{
		{3, 1, 0, "x.."},
		{4, 2, 0, "x.x."},
		{5, 2, 0, "x..x."},
		{7, 3, 0, "x..x.x."},
		{8, 3, 0, "x..x.x.."},
		{8, 5, 0, "x.xx.x.x"},
		{13, 5, 0, "x..x.x..x..x."},
		{16, 4, 0, "x...x...x...x..."},
		{8, 5, 3, "x.x.xx.x"},
		{4, 2, 1, ".x.x"},
	}

	for _, tc := range cases {
		name := fmt.Sprintf("%d-%d-%d", tc.beats, tc.hits, tc.shift)
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, rhythm.Generate(tc.beats, tc.hits, tc.shift).String())
		})
	}
}

func TestGenerateLengthAndHitCount(t *testing.T) {
	for beats := 1; beats <= 16; beats++ {
		for hits := 0; hits <= beats; hits++ {
			p := rhythm.Generate(beats, hits, 0)
			require.Len(t, p, beats, "beats=%d hits=%d", beats, hits)
			require.Equal(t, hits, p.Hits(), "beats=%d hits=%d", beats, hits)
		}
	}
}

func TestGenerateShiftIsRotation(t *testing.T) {
	for beats := 1; beats <= 16; beats++ {
		for hits := 0; hits <= beats; hits++ {
			base := rhythm.Generate(beats, hits, 0)
			for shift := 0; shift <= beats; shift++ {
				got := rhythm.Generate(beats, hits, shift)
				s := shift % beats
				want := append(append(rhythm.Pattern{}, base[s:]...), base[:s]...)
				require.Equal(t, want, got, "beats=%d hits=%d shift=%d", beats, hits, shift)
			}
		}
	}
}

func TestGenerateDegenerateCases(t *testing.T) {
	for beats := 1; beats <= 16; beats++ {
		for _, shift := range []int{0, 1, beats} {
			allRest := rhythm.Generate(beats, 0, shift)
			assert.Equal(t, 0, allRest.Hits())
			require.Len(t, allRest, beats)

			allHit := rhythm.Generate(beats, beats, shift)
			assert.Equal(t, beats, allHit.Hits())
			require.Len(t, allHit, beats)
		}
	}
}

// Consecutive hit-to-hit gaps (including the wraparound gap) may differ by
// at most one: the standard evenness property of Euclidean rhythms.
func TestGenerateEvenness(t *testing.T) {
	for beats := 1; beats <= 16; beats++ {
		for hits := 1; hits <= beats; hits++ {
			p := rhythm.Generate(beats, hits, 0)

			var idx []int
			for i, s := range p {
				if s == rhythm.Hit {
					idx = append(idx, i)
				}
			}
			require.Len(t, idx, hits)

			minGap, maxGap := beats+1, 0
			for i := range idx {
				next := idx[(i+1)%len(idx)]
				gap := next - idx[i]
				if gap <= 0 {
					gap += beats
				}
				if gap < minGap {
					minGap = gap
				}
				if gap > maxGap {
					maxGap = gap
				}
			}
			assert.LessOrEqual(t, maxGap-minGap, 1, "beats=%d hits=%d pattern=%s", beats, hits, p)
		}
	}
}

func TestGenerateClampsArguments(t *testing.T) {
	assert.Equal(t, "xxxx", rhythm.Generate(4, 9, 0).String())
	assert.Equal(t, "....", rhythm.Generate(4, -1, 0).String())
	assert.Len(t, rhythm.Generate(0, 0, 0), 1)
}
