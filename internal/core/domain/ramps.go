package domain

// EnglishRamps are the legend breakpoints used by the map app, indexed by
// the span of the requested period.
var EnglishRamps = [][]float64{
	{0.05, 0.25, 0.5, 1, 1.5, 2, 3, 5, 7, 10, 15, 20},
	{0.5, 1, 2, 3, 5, 7, 10, 15, 20, 25, 30, 35},
	{1, 2, 3, 5, 7, 10, 15, 20, 25, 30, 40, 50},
	{2, 3, 5, 7, 10, 15, 20, 25, 30, 40, 50, 75},
}

// RampForSpan picks the english ramp for a period of days length.
// A nil span means a single day.
func RampForSpan(days *int) []float64 {
	if days == nil {
		return EnglishRamps[0]
	}
	if *days > 31 {
		return EnglishRamps[2]
	}
	return EnglishRamps[1]
}
