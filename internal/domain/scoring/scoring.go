// Package scoring computes the aggregate figures and the narrative text of a
// report from the six skill scores. Everything here is pure and deterministic.
package scoring

import (
	"math"

	"github.com/montanaflynn/stats"

	"gradebook/internal/domain/student"
)

// Spread bands by population standard deviation.
const (
	SpreadRegular    = "régulier"
	SpreadContrasted = "contrasté"
	SpreadHigh       = "très contrasté"
)

// Overall levels by mean.
const (
	LevelExcellent   = "excellent"
	LevelVeryGood    = "très bon"
	LevelGood        = "bon"
	LevelProgressing = "en progression"
	LevelSupport     = "accompagnement renforcé"
)

// Advice tiers.
const (
	TierLow  = "low"
	TierMid  = "mid"
	TierHigh = "high"
)

// SkillScore pairs a skill name with its score.
type SkillScore struct {
	Skill string
	Score int
}

// Analysis bundles every figure derived from one set of scores.
type Analysis struct {
	Mean       float64
	Spread     float64
	SpreadBand string
	Level      string
	Best       SkillScore
	Worst      SkillScore
	Percent    int
	Advice     []SkillAdvice
}

// SkillAdvice is the advisory line for one skill.
type SkillAdvice struct {
	SkillScore
	Tier string
	Text string
}

// Mean returns the arithmetic mean rounded to 2 decimals.
func Mean(s student.Scores) float64 {
	m, err := stats.Mean(stats.Float64Data(s.Values()))
	if err != nil {
		return 0
	}
	r, _ := stats.Round(m, 2)
	return r
}

// Spread returns the population standard deviation rounded to 2 decimals.
func Spread(s student.Scores) float64 {
	sd, err := stats.StandardDeviationPopulation(stats.Float64Data(s.Values()))
	if err != nil || math.IsNaN(sd) {
		return 0
	}
	r, _ := stats.Round(sd, 2)
	return r
}

// SpreadBand labels a standard deviation: <3 regular, <5 contrasted, else high.
func SpreadBand(sd float64) string {
	switch {
	case sd < 3:
		return SpreadRegular
	case sd < 5:
		return SpreadContrasted
	default:
		return SpreadHigh
	}
}

// Level selects one of five bands from the mean.
func Level(mean float64) string {
	switch {
	case mean >= 16:
		return LevelExcellent
	case mean >= 14:
		return LevelVeryGood
	case mean >= 12:
		return LevelGood
	case mean >= 10:
		return LevelProgressing
	default:
		return LevelSupport
	}
}

// Best returns the highest skill; the first occurrence wins ties.
func Best(s student.Scores) SkillScore {
	idx := 0
	for i, v := range s {
		if v > s[idx] {
			idx = i
		}
	}
	return SkillScore{Skill: student.Skills[idx], Score: s[idx]}
}

// Worst returns the lowest skill; the first occurrence wins ties.
func Worst(s student.Scores) SkillScore {
	idx := 0
	for i, v := range s {
		if v < s[idx] {
			idx = i
		}
	}
	return SkillScore{Skill: student.Skills[idx], Score: s[idx]}
}

// Percent is the overall level as a rounded percentage of the maximum.
func Percent(s student.Scores) int {
	sum := 0
	for _, v := range s {
		sum += v
	}
	return int(math.Round(float64(sum) / float64(len(s)*student.MaxScore) * 100))
}

// Tier returns the advice tier of a score: low <10, mid <15, high otherwise.
func Tier(v int) string {
	switch {
	case v < 10:
		return TierLow
	case v < 15:
		return TierMid
	default:
		return TierHigh
	}
}

// Analyze computes the full Analysis for a set of scores.
// POST: same input always yields an identical Analysis
func Analyze(s student.Scores) Analysis {
	sd := Spread(s)
	mean := Mean(s)
	a := Analysis{
		Mean:       mean,
		Spread:     sd,
		SpreadBand: SpreadBand(sd),
		Level:      Level(mean),
		Best:       Best(s),
		Worst:      Worst(s),
		Percent:    Percent(s),
	}
	for i, v := range s {
		skill := student.Skills[i]
		tier := Tier(v)
		a.Advice = append(a.Advice, SkillAdvice{
			SkillScore: SkillScore{Skill: skill, Score: v},
			Tier:       tier,
			Text:       Advice(skill, tier),
		})
	}
	return a
}

// Averages returns the per-skill mean of a set of records, rounded to 2 decimals.
// ok is false when records is empty.
func Averages(records []student.Record) (avg [6]float64, ok bool) {
	if len(records) == 0 {
		return avg, false
	}
	for i := range avg {
		col := make(stats.Float64Data, 0, len(records))
		for _, r := range records {
			col = append(col, float64(r.Scores[i]))
		}
		m, err := col.Mean()
		if err != nil {
			return avg, false
		}
		avg[i], _ = stats.Round(m, 2)
	}
	return avg, true
}
