package fithub

import "math"

const (
	timeWeight      = 0.3
	heartRateWeight = 0.4
	calorieWeight   = 0.3

	// score contributed by an optional metric the activity did not report
	unreported = 0.5
)

// Intensity scores the effort of an activity from its moving time, average heart
// rate and calories.
//
// The heart rate term is not clamped: 250 bpm contributes 1.5 and 50 bpm contributes
// -0.5, so the result can fall slightly outside [0, 1].
func Intensity(act *Activity) float64 {
	timeScore := math.Min(float64(act.MovingTime)/3600, 1)
	heartRateScore := unreported
	if act.AverageHeartrate != 0 {
		heartRateScore = (act.AverageHeartrate - 100) / 100
	}
	calorieScore := unreported
	if act.Calories != 0 {
		calorieScore = math.Min(act.Calories/1000, 1)
	}
	// the conversions round each product and keep the sum from being fused
	return float64(timeScore*timeWeight) + float64(heartRateScore*heartRateWeight) + float64(calorieScore*calorieWeight)
}

// Level buckets an intensity into one of the five heat levels; zero is reserved
// for days without a workout
func Level(intensity float64) int {
	if intensity == 0 || math.IsNaN(intensity) {
		return 0
	}
	level := math.Ceil(intensity * 4)
	switch {
	case level < 1:
		return 1
	case level > 4:
		return 4
	}
	return int(level)
}

// Score returns a scored workout for the activity
func Score(act *Activity) *Workout {
	return &Workout{Activity: *act, Intensity: Intensity(act)}
}
