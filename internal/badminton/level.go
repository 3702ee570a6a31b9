package badminton

import "fmt"

// Level is a player's skill grade on the club's ordered scale, weakest first.
type Level string

const (
	LevelY       Level = "Y"
	LevelYPlus   Level = "Y_PLUS"
	LevelTBY     Level = "TBY"
	LevelTBMinus Level = "TB_MINUS"
	LevelTB      Level = "TB"
	LevelTBPlus  Level = "TB_PLUS"
	LevelK       Level = "K"
	LevelG       Level = "G"
)

// levelScores maps each grade to the numeric score the pairing engine
// balances on.
var levelScores = map[Level]float64{
	LevelY:       1,
	LevelYPlus:   1.5,
	LevelTBY:     2,
	LevelTBMinus: 3,
	LevelTB:      4,
	LevelTBPlus:  4.5,
	LevelK:       5,
	LevelG:       6,
}

// midpointScore is used for players whose grade is unknown, so they neither
// dominate nor sink a pairing.
const midpointScore = 3.5

// Score returns the numeric balancing score for the level.
func (l Level) Score() float64 {
	if score, ok := levelScores[l]; ok {
		return score
	}
	return midpointScore
}

// ParseLevel validates a level string coming in from the boundary.
func ParseLevel(s string) (Level, error) {
	l := Level(s)
	if _, ok := levelScores[l]; !ok {
		return "", fmt.Errorf("unknown level %q: %w", s, ErrInvalidState)
	}
	return l, nil
}
