package badminton

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelScore_OrderedScale(t *testing.T) {
	ordered := []Level{LevelY, LevelYPlus, LevelTBY, LevelTBMinus, LevelTB, LevelTBPlus, LevelK, LevelG}
	for i := 1; i < len(ordered); i++ {
		assert.Greater(t, ordered[i].Score(), ordered[i-1].Score(),
			"%s must outrank %s", ordered[i], ordered[i-1])
	}
}

func TestLevelScore_UnknownUsesMidpoint(t *testing.T) {
	assert.Equal(t, 3.5, Level("").Score())
	assert.Equal(t, 3.5, Level("PRO").Score())
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("TB_PLUS")
	assert.NoError(t, err)
	assert.Equal(t, LevelTBPlus, l)

	_, err = ParseLevel("tb_plus")
	assert.ErrorIs(t, err, ErrInvalidState)
}
