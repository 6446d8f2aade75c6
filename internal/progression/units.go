package progression

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Unit is a display unit. Stored weights are always pounds.
type Unit string

const (
	Pounds    Unit = "lbs"
	Kilograms Unit = "kg"
)

const lbsToKg = 0.453592

// ParseUnit accepts lbs/lb and kg/kgs. Blank means pounds.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lb", "lbs":
		return Pounds, nil
	case "kg", "kgs":
		return Kilograms, nil
	default:
		return "", fmt.Errorf("unknown unit %q", s)
	}
}

// Label is the unit suffix shown next to a weight.
func (u Unit) Label() string {
	if u == Kilograms {
		return "kg"
	}
	return "lbs"
}

// Convert expresses a pound weight in u. Kilograms are rounded to 0.1.
func Convert(lbs float64, u Unit) float64 {
	if u == Kilograms {
		return math.Round(lbs*lbsToKg*10) / 10
	}
	return lbs
}

// FormatWeight renders lbs in u with its label, e.g. "59 kg".
func FormatWeight(lbs float64, u Unit) string {
	return strconv.FormatFloat(Convert(lbs, u), 'f', -1, 64) + " " + u.Label()
}
