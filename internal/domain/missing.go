package domain

import "math"

// Field names a non-key weather quantity.
type Field int

const (
	TDB Field = iota
	TDP
	RH
	GHI
	DNI
	DHI
	WDr
	WSpd
	AtmPr
	NumFields
)

var fieldNames = [NumFields]string{"tdb", "tdp", "rh", "ghi", "dni", "dhi", "wdr", "wspd", "atmpr"}

func (f Field) String() string {
	if f < 0 || f >= NumFields {
		return "unknown"
	}
	return fieldNames[f]
}

// ParseField resolves a column name to a Field.
func ParseField(name string) (Field, bool) {
	for i, n := range fieldNames {
		if n == name {
			return Field(i), true
		}
	}
	return 0, false
}

// Values holds one value per Field.
type Values [NumFields]float64

// MissingValues returns a Values with every field missing.
func MissingValues() Values {
	var v Values
	for i := range v {
		v[i] = Missing()
	}
	return v
}

// AllMissing reports whether no field carries a value.
func (v Values) AllMissing() bool {
	for _, x := range v {
		if !IsMissing(x) {
			return false
		}
	}
	return true
}

// Missing returns the value used for absent data. It is NaN so that it
// propagates through arithmetic instead of masquerading as zero.
func Missing() float64 { return math.NaN() }

// IsMissing reports whether v is the missing marker.
func IsMissing(v float64) bool { return math.IsNaN(v) }

// isFinite reports whether v is neither NaN nor ±Inf.
func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
