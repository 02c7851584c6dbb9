package consonance

import "math"

// MapPleasantnessToInterval picks the ranked semitone nearest (1-pleasantness)·11
// Pleasantness 1 is the most consonant interval, 0 the most dissonant
func MapPleasantnessToInterval(pleasantness float64, ranking Ranking) int {
	idx := int(math.Round((1 - clamp01(pleasantness)) * 11))
	return ranking[idx]
}

// MapPleasantnessToIntervalContinuous interpolates linearly between the two
// ranked semitone values bracketing (1-pleasantness)·11, so results can be fractional
func MapPleasantnessToIntervalContinuous(pleasantness float64, ranking Ranking) float64 {
	pos := (1 - clamp01(pleasantness)) * 11
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return float64(ranking[lo])
	}
	frac := pos - float64(lo)
	return float64(ranking[lo]) + (float64(ranking[hi])-float64(ranking[lo]))*frac
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
