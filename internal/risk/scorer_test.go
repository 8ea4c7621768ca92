package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreWeights(t *testing.T) {
	s := NewScorer(80, 40)

	a := s.Score(90, 0.8, true)
	// 45 + 24 + 20
	assert.Equal(t, 89.0, a.TotalScore)
	assert.Equal(t, LevelLow, a.RiskLevel)
	assert.Equal(t, Breakdown{FaceScore: 90, OCRScore: 80, IDDetected: true}, a.Breakdown)
}

func TestIDBonusIsAllOrNothing(t *testing.T) {
	s := NewScorer(80, 40)

	with := s.Score(60, 0.5, true)
	without := s.Score(60, 0.5, false)
	assert.Equal(t, 20.0, with.TotalScore-without.TotalScore)
	assert.False(t, without.Breakdown.IDDetected)
}

func TestLevelBands(t *testing.T) {
	s := NewScorer(80, 40)

	cases := []struct {
		total float64
		want  string
	}{
		{100, LevelLow},
		{80, LevelLow},
		{79.99, LevelMedium},
		{79, LevelMedium},
		{40, LevelMedium},
		{39.99, LevelHigh},
		{0, LevelHigh},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, s.Level(c.total), "total=%v", c.total)
	}
}

func TestScoreAtThresholdIsLow(t *testing.T) {
	s := NewScorer(80, 40)

	assert.Equal(t, 60.0, s.Score(60, 1, false).TotalScore)

	s2 := NewScorer(60, 40)
	assert.Equal(t, LevelLow, s2.Score(60, 1, false).RiskLevel)
	assert.Equal(t, LevelMedium, s2.Score(58, 1, false).RiskLevel)
}

func TestScoreClamps(t *testing.T) {
	s := NewScorer(80, 40)

	assert.Equal(t, 0.0, s.Score(-100, 0, false).TotalScore)
	assert.Equal(t, 100.0, s.Score(100, 1, true).TotalScore)
	assert.Equal(t, LevelHigh, s.Score(-100, 0, false).RiskLevel)
}

func TestNewScorerDefaults(t *testing.T) {
	s := NewScorer(0, 0)
	assert.Equal(t, LevelLow, s.Level(DefaultHighThreshold))
	assert.Equal(t, LevelMedium, s.Level(DefaultMediumThreshold))

	inverted := NewScorer(30, 70)
	assert.Equal(t, LevelMedium, inverted.Level(50))
}
