package audio

import "github.com/lixenwraith/sonify/constant"

// softLimit compresses peaks above the threshold toward the ceiling, then hard clips
func softLimit(v float64) float64 {
	const th = constant.LimiterThreshold
	if v > th {
		v = th + constant.LimiterCeiling*(1.0-1.0/(1.0+(v-th)*constant.LimiterSlope))
	} else if v < -th {
		v = -th - constant.LimiterCeiling*(1.0-1.0/(1.0+(-v-th)*constant.LimiterSlope))
	}

	if v > 1.0 {
		v = 1.0
	} else if v < -1.0 {
		v = -1.0
	}
	return v
}
