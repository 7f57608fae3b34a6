package domain

import "math"

// Epsilon порог, ниже которого поток и стоимость считаются нулевыми
const Epsilon = 1e-9

// DefaultLength длина ребра, если она не задана во входных данных
const DefaultLength = 1.0

// Пороги доли потока для горячих рёбер
const (
	CriticalShareThreshold = 0.30
	HighShareThreshold     = 0.20
	MediumShareThreshold   = 0.10
)

// IsZero проверяет, равно ли значение нулю
func IsZero(v float64) bool {
	return math.Abs(v) < Epsilon
}

// IsPositive проверяет, положительно ли значение
func IsPositive(v float64) bool {
	return v > Epsilon
}

// IsFinite проверяет, что значение не NaN и не бесконечность
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
