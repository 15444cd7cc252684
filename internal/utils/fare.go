package utils

import "math"

// FareSchedule prices a trip as BaseFare + PerKilometer*distance, rounded to
// the nearest Step.
type FareSchedule struct {
	BaseFare        float64
	PerKilometer    float64
	Step            float64
	AverageSpeedKMH float64
}

var DefaultFareSchedule = FareSchedule{
	BaseFare:        5,
	PerKilometer:    1.5,
	Step:            0.5,
	AverageSpeedKMH: 30,
}

func (f FareSchedule) Price(distanceKM float64) float64 {
	raw := f.BaseFare + f.PerKilometer*distanceKM
	return RoundToStep(raw, f.Step)
}

func (f FareSchedule) Duration(distanceKM float64) int {
	return EstimateDurationMinutes(distanceKM, f.AverageSpeedKMH)
}

// CalculatePrice prices a distance with the default schedule.
func CalculatePrice(distanceKM float64) float64 {
	return DefaultFareSchedule.Price(distanceKM)
}

// RoundToStep rounds value to the nearest multiple of step, halves up.
func RoundToStep(value, step float64) float64 {
	if step <= 0 {
		return value
	}
	return math.Round(value/step) * step
}
