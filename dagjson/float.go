package dagjson

import (
	"math"
	"strconv"
	"strings"
)

// floatFormatMode selects how the dag-json encoder renders float Values.
type floatFormatMode int

const (
	modeDecimal floatFormatMode = iota
	modeScientific
	modeDecimalInRange
)

// FloatFormat configures dag-json float rendering. The zero value is
// FloatDecimal.
type FloatFormat struct {
	mode floatFormatMode
	// minExp/maxExp bound the decimal-in-range window on floor(log10|v|).
	// nil means unbounded in that direction.
	minExp, maxExp *int
}

// FloatScientific always renders floats in scientific (%e-like) form.
func FloatScientific() FloatFormat { return FloatFormat{mode: modeScientific} }

// FloatDecimal always renders floats in decimal form, appending ".0" to
// integral values.
func FloatDecimal() FloatFormat { return FloatFormat{mode: modeDecimal} }

// FloatDecimalInRange renders floats in decimal form when
// floor(log10(|v|)) falls within [minExp, maxExp], and in scientific form
// otherwise. Either bound may be nil for "unbounded".
func FloatDecimalInRange(minExp, maxExp *int) FloatFormat {
	return FloatFormat{mode: modeDecimalInRange, minExp: minExp, maxExp: maxExp}
}

// format renders f according to ff. Callers are expected to have already
// rejected NaN/±Inf, which dag-json has no representation for.
func (ff FloatFormat) format(f float64) string {
	if f == 0 && math.Signbit(f) {
		// Negative zero is always emitted as "-0.", a single form
		// regardless of FloatFormat.
		return "-0."
	}
	switch ff.mode {
	case modeScientific:
		return scientificString(f)
	case modeDecimalInRange:
		if f == 0 || inExpRange(f, ff.minExp, ff.maxExp) {
			return decimalString(f)
		}
		return scientificString(f)
	default: // modeDecimal
		return decimalString(f)
	}
}

func inExpRange(f float64, minExp, maxExp *int) bool {
	exp := int(math.Floor(math.Log10(math.Abs(f))))
	if minExp != nil && exp < *minExp {
		return false
	}
	if maxExp != nil && exp > *maxExp {
		return false
	}
	return true
}

// decimalString renders f in plain decimal notation, appending ".0" when
// the shortest round-trip representation would otherwise have no
// fractional part.
func decimalString(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// scientificString renders f as "<mantissa>e<exponent>", the form used by
// S7 ("100.111" -> "1.00111e2"): lowercase e, no '+' sign, no leading
// zeros in the exponent.
func scientificString(f float64) string {
	s := strconv.FormatFloat(f, 'e', -1, 64)
	mantissa, exp, _ := strings.Cut(s, "e")
	neg := strings.HasPrefix(exp, "-")
	exp = strings.TrimLeft(strings.TrimPrefix(strings.TrimPrefix(exp, "+"), "-"), "0")
	if exp == "" {
		exp = "0"
	}
	if neg {
		exp = "-" + exp
	}
	return mantissa + "e" + exp
}
