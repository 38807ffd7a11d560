// Package units provides shared constants and conversion for amplitude units
package units

// Unit constants
const (
	Volts      = "V"
	MilliVolts = "mV"
	MicroVolts = "uV"
	Raw        = "raw" // uncalibrated counts (stim and misc channels)
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{Volts, MilliVolts, MicroVolts, Raw}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "V, mV, uV, raw"
}

// toVolts maps each convertible unit to its value in volts.
var toVolts = map[string]float64{
	Volts:      1.0,
	MilliVolts: 1e-3,
	MicroVolts: 1e-6,
}

// Convert converts an amplitude between units. Raw values carry no physical
// unit and pass through unchanged, as do unknown units.
func Convert(value float64, from, to string) float64 {
	fromScale, okFrom := toVolts[from]
	toScale, okTo := toVolts[to]
	if !okFrom || !okTo {
		return value
	}
	return value * fromScale / toScale
}

// DisplayUnit returns the unit a channel's samples should be shown in:
// microvolts for physical amplitudes, raw counts otherwise.
func DisplayUnit(native string) string {
	if _, ok := toVolts[native]; ok {
		return MicroVolts
	}
	return Raw
}
