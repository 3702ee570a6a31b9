package pairing_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/nhatcuongboy/csbadminton-sub001/internal/badminton"
	"github.com/nhatcuongboy/csbadminton-sub001/internal/pairing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidates(scores ...float64) []pairing.Candidate {
	pool := make([]pairing.Candidate, len(scores))
	for i, s := range scores {
		pool[i] = pairing.Candidate{ID: fmt.Sprintf("p%d", i+1), Name: fmt.Sprintf("Player %d", i+1), Score: s}
	}
	return pool
}

func pairSum(p [2]pairing.Candidate) float64 {
	return p[0].Score + p[1].Score
}

func TestBestSplit_InsufficientPlayers(t *testing.T) {
	_, err := pairing.BestSplit(candidates(1, 2, 3))
	assert.ErrorIs(t, err, badminton.ErrInsufficientPlayers)
}

func TestBestSplit_FourPlayers(t *testing.T) {
	// With exactly 4 players the only freedom is the split; 1+4 vs 2+3
	// gives the minimum difference of 0.
	s, err := pairing.BestSplit(candidates(1, 2, 3, 4))
	require.NoError(t, err)
	assert.Equal(t, 0.0, s.ScoreDifference)
	assert.Equal(t, pairSum(s.Pair1), pairSum(s.Pair2))
}

func TestBestSplit_LevelScale(t *testing.T) {
	// The full club level scale. The optimum over C(8,4)x3 splits is a
	// perfectly balanced match.
	s, err := pairing.BestSplit(candidates(1, 1.5, 2, 3, 4, 4.5, 5, 6))
	require.NoError(t, err)
	assert.Equal(t, 0.0, s.ScoreDifference)
}

func TestBestSplit_IsGlobalMinimum(t *testing.T) {
	pool := candidates(1, 1.5, 2, 3, 4, 4.5, 5, 6)
	s, err := pairing.BestSplit(pool)
	require.NoError(t, err)

	// Brute-force verification against every 4-subset and split.
	min := math.Inf(1)
	for a := 0; a < len(pool); a++ {
		for b := a + 1; b < len(pool); b++ {
			for c := b + 1; c < len(pool); c++ {
				for d := c + 1; d < len(pool); d++ {
					sub := []pairing.Candidate{pool[a], pool[b], pool[c], pool[d]}
					diffs := []float64{
						math.Abs(sub[0].Score + sub[1].Score - sub[2].Score - sub[3].Score),
						math.Abs(sub[0].Score + sub[2].Score - sub[1].Score - sub[3].Score),
						math.Abs(sub[0].Score + sub[3].Score - sub[1].Score - sub[2].Score),
					}
					for _, d := range diffs {
						if d < min {
							min = d
						}
					}
				}
			}
		}
	}
	assert.Equal(t, min, s.ScoreDifference)
}

func TestBestSplit_PrefersEarlierPoolEntriesOnTies(t *testing.T) {
	// All equal scores: every split ties at 0, so the first subset
	// (the four longest-waiting players at the head of the pool) wins.
	s, err := pairing.BestSplit(candidates(4, 4, 4, 4, 4, 4))
	require.NoError(t, err)
	got := map[string]bool{}
	for _, c := range []pairing.Candidate{s.Pair1[0], s.Pair1[1], s.Pair2[0], s.Pair2[1]} {
		got[c.ID] = true
	}
	assert.Equal(t, map[string]bool{"p1": true, "p2": true, "p3": true, "p4": true}, got)
}

func TestSlots_PairPositions(t *testing.T) {
	s, err := pairing.BestSplit(candidates(1, 2, 3, 4))
	require.NoError(t, err)

	slots := s.Slots()
	require.Len(t, slots, 4)

	// Positions 0/2 must hold pair 1, positions 1/3 pair 2.
	byPos := map[int]string{}
	for _, slot := range slots {
		byPos[slot.Position] = slot.PlayerID
	}
	assert.Equal(t, s.Pair1[0].ID, byPos[0])
	assert.Equal(t, s.Pair1[1].ID, byPos[2])
	assert.Equal(t, s.Pair2[0].ID, byPos[1])
	assert.Equal(t, s.Pair2[1].ID, byPos[3])
}
