package repository

import "math"

// CbmScale is the number of volume units per cbm. Volumes are stored with
// three decimals, so every capacity guard is evaluated on whole litres.
const CbmScale = 1000

// Milli converts cbm to whole litres.
func Milli(cbm float64) int64 {
	return int64(math.Round(cbm * CbmScale))
}

func FromMilli(m int64) float64 {
	return float64(m) / CbmScale
}

// RoundCbm drops everything below the stored precision.
func RoundCbm(cbm float64) float64 {
	return FromMilli(Milli(cbm))
}

// ValidCbm reports whether cbm is positive and carries at most three decimals.
func ValidCbm(cbm float64) bool {
	if math.IsNaN(cbm) || math.IsInf(cbm, 0) || cbm <= 0 {
		return false
	}
	scaled := cbm * CbmScale
	return math.Abs(scaled-math.Round(scaled)) < 1e-6 && Milli(cbm) > 0
}
