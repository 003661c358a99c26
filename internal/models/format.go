package models

import (
	"math"
	"strconv"
	"strings"
)

// FormatDecimal renders v in its shortest round-tripping form, keeping a
// trailing ".0" on integral values so that 1 prints as "1.0".
func FormatDecimal(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	if math.IsInf(v, -1) {
		return "-inf"
	}
	if math.IsNaN(v) {
		return "nan"
	}

	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
