// Package pairing computes the best 2-vs-2 split of waiting players,
// minimizing the absolute difference between the two pairs' summed skill
// scores. The search is deliberately exhaustive: every combination of 4
// players from the pool, times the 3 ways to split each into pairs. Callers
// bound the pool size (top-N longest waiting), which keeps the search cheap
// and preserves the optimality guarantee.
package pairing

import (
	"math"

	"github.com/nhatcuongboy/csbadminton-sub001/internal/badminton"
)

// Candidate is one player considered for a suggested match.
type Candidate struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Suggestion is the winning split. Pair1 occupies court positions 0/2 and
// Pair2 positions 1/3.
type Suggestion struct {
	Pair1           [2]Candidate `json:"pair1"`
	Pair2           [2]Candidate `json:"pair2"`
	ScoreDifference float64      `json:"score_difference"`
}

// pairSplits enumerates the 3 ways 4 players can split into two pairs,
// as index pairs into a 4-element subset.
var pairSplits = [3][2][2]int{
	{{0, 1}, {2, 3}},
	{{0, 2}, {1, 3}},
	{{0, 3}, {1, 2}},
}

// BestSplit returns the split of 4 players from pool with the smallest
// pair-sum imbalance. The pool is expected to be ordered by descending wait
// time; when several splits tie, the first one found wins, which prefers the
// longest-waiting players.
func BestSplit(pool []Candidate) (*Suggestion, error) {
	if len(pool) < 4 {
		return nil, badminton.ErrInsufficientPlayers
	}

	var best *Suggestion
	bestDiff := math.Inf(1)

	forEachSubset(len(pool), func(idx [4]int) {
		subset := [4]Candidate{pool[idx[0]], pool[idx[1]], pool[idx[2]], pool[idx[3]]}
		for _, split := range pairSplits {
			p1a, p1b := subset[split[0][0]], subset[split[0][1]]
			p2a, p2b := subset[split[1][0]], subset[split[1][1]]
			diff := math.Abs((p1a.Score + p1b.Score) - (p2a.Score + p2b.Score))
			if diff < bestDiff {
				bestDiff = diff
				best = &Suggestion{
					Pair1:           [2]Candidate{p1a, p1b},
					Pair2:           [2]Candidate{p2a, p2b},
					ScoreDifference: diff,
				}
			}
		}
	})

	return best, nil
}

// Slots lays the suggestion out on a court: pair 1 at positions 0/2, pair 2
// at positions 1/3.
func (s *Suggestion) Slots() []badminton.PlayerSlot {
	return []badminton.PlayerSlot{
		{PlayerID: s.Pair1[0].ID, Position: 0},
		{PlayerID: s.Pair2[0].ID, Position: 1},
		{PlayerID: s.Pair1[1].ID, Position: 2},
		{PlayerID: s.Pair2[1].ID, Position: 3},
	}
}

// forEachSubset visits every 4-element index combination of [0,n) in
// lexicographic order.
func forEachSubset(n int, visit func([4]int)) {
	for a := 0; a < n-3; a++ {
		for b := a + 1; b < n-2; b++ {
			for c := b + 1; c < n-1; c++ {
				for d := c + 1; d < n; d++ {
					visit([4]int{a, b, c, d})
				}
			}
		}
	}
}
