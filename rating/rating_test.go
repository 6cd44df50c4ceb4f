package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPointsFirstBand(t *testing.T) {
	// Равные и почти равные рейтинги: обе стороны рискуют одинаково.
	for _, diff := range []int{0, 5, 12} {
		assert.Equal(t, 8, Points(diff, true), "diff %d upset", diff)
		assert.Equal(t, 8, Points(diff, false), "diff %d expected", diff)
	}
}

func TestPointsBandBoundaries(t *testing.T) {
	cases := []struct {
		absDiff  int
		upset    int
		expected int
	}{
		{13, 10, 7},
		{37, 10, 7},
		{38, 13, 6},
		{100, 20, 4},
		{150, 30, 2},
		{200, 40, 1},
		{250, 50, 0},
	}
	for _, c := range cases {
		assert.Equal(t, c.upset, Points(c.absDiff, true), "absDiff %d upset", c.absDiff)
		assert.Equal(t, c.expected, Points(c.absDiff, false), "absDiff %d expected", c.absDiff)
	}
}

func TestPointsBeyondTable(t *testing.T) {
	// За последней строкой таблицы выигрыш аутсайдера растёт на 5 за
	// полосу, фаворит не получает ничего.
	assert.Equal(t, 55, Points(275, true))
	assert.Equal(t, 60, Points(300, true))
	assert.Equal(t, 0, Points(300, false))
}

func TestPointsCap(t *testing.T) {
	assert.Equal(t, MaxExchange, Points(488, true))
	assert.Equal(t, MaxExchange, Points(1000, true))
	assert.Equal(t, 0, Points(1000, false))
}

func TestPointExchangeZeroSum(t *testing.T) {
	cases := []struct {
		a, b int
		aWon bool
	}{
		{1500, 1500, true},
		{1500, 1200, true},
		{1500, 1200, false},
		{900, 1700, true},
		{900, 1700, false},
	}
	for _, c := range cases {
		deltaA, deltaB := PointExchange(c.a, c.b, c.aWon)
		assert.Equal(t, -deltaB, deltaA, "%+v", c)
	}
}

func TestPointExchangeExpectedWin(t *testing.T) {
	// Фаворит с перевесом в 300 очков почти ничего не выигрывает.
	deltaA, deltaB := PointExchange(1800, 1500, true)
	assert.Equal(t, 0, deltaA)
	assert.Equal(t, 0, deltaB)
}

func TestPointExchangeUpset(t *testing.T) {
	// Аутсайдер, обыгравший фаворита на 300 очков выше, забирает 60.
	deltaA, deltaB := PointExchange(1500, 1800, true)
	assert.Equal(t, 60, deltaA)
	assert.Equal(t, -60, deltaB)
}

func TestPointExchangeEqualRatings(t *testing.T) {
	// Форфейт при равных рейтингах — обычный обмен первой полосы.
	deltaA, deltaB := PointExchange(1500, 1500, false)
	assert.Equal(t, -8, deltaA)
	assert.Equal(t, 8, deltaB)
}

func TestApplyFloor(t *testing.T) {
	assert.Equal(t, 1508, Apply(1500, 8))
	assert.Equal(t, 0, Apply(5, -8))
	assert.Equal(t, 0, Apply(0, -60))
}
