package strength

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/meltforce/flexlog/internal/models"
)

// lbPerKg converts kilograms to the canonical unit (pounds).
const lbPerKg = 2.2046226218

// defaultReps is used when a reps prescription cannot be parsed.
const defaultReps = 8

var (
	repsRange  = regexp.MustCompile(`(\d+)-(\d+)`)
	repsSetsX  = regexp.MustCompile(`(\d+)x(\d+)`)
	repsSingle = regexp.MustCompile(`(\d+)`)
)

// stripSpace removes all Unicode whitespace, including NBSP and the BOM
// that pasted text and mobile keyboards insert.
func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '\uFEFF' {
			return -1
		}
		return r
	}, s)
}

// EstimateReps turns a reps prescription into a single rep count:
// "8-12" -> 10 (mean of the range), "5x5" -> 5, "10" -> 10, else 8.
func EstimateReps(repsText string) float64 {
	cleaned := stripSpace(strings.ToLower(repsText))

	if m := repsRange.FindStringSubmatch(cleaned); m != nil {
		a, okA := positive(m[1])
		b, okB := positive(m[2])
		if okA && okB {
			return (a + b) / 2
		}
	}
	if m := repsSetsX.FindStringSubmatch(cleaned); m != nil {
		if r, ok := positive(m[2]); ok {
			return r
		}
	}
	if m := repsSingle.FindStringSubmatch(cleaned); m != nil {
		if v, ok := positive(m[1]); ok {
			return v
		}
	}
	return defaultReps
}

func positive(digits string) (float64, bool) {
	v, err := strconv.ParseFloat(digits, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) || v <= 0 {
		return 0, false
	}
	return v, true
}

// Estimate1RM applies the Epley formula with reps clamped to [1, 15].
// The result is in the same unit as weight.
func Estimate1RM(weight, reps float64) float64 {
	r := math.Max(1, math.Min(15, reps))
	return weight * (1 + r/30)
}

// ToCanonical converts a weight to pounds. Pound values pass through.
func ToCanonical(value float64, units models.Units) float64 {
	if units == models.UnitsKg {
		return value * lbPerKg
	}
	return value
}
