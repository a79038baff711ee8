// Package domain models hourly meteorological data and the pure
// transformations applied to it after parsing.
//
// # Data Model
//
// A [Table] is one parsed source: an ordered slice of [Record] values, one per
// hour. Typical-year files have no real calendar, so their records carry a
// synthetic timestamp on a fixed non-leap reference year (8760 hours).
// Actual-year data from measurement providers is keyed explicitly by
// [Key] (year, month, day, hour) and enters as [Observation] rows.
//
// Missing data:
//
//	Missing values are NaN (see [Missing] and [IsMissing]). They propagate
//	through arithmetic, are ignored by means, and a row whose every field is
//	missing is discarded by [Aggregate]. Zero is a real value, never a
//	placeholder.
//
// Units:
//
//	tdb, tdp      °C
//	rh            % (0..100)
//	ghi, dni, dhi W/m²
//	wspd          m/s
//	wdr           degrees clockwise from north
//	atmpr         provider units, carried through aggregation only
//
// # Dew Point
//
// [DewPoint] follows ASHRAE Fundamentals 2009 (Psychrometrics):
//
//	φ     = clamp(rh/100, 0, 1)
//	ln pws: eq. 5 over ice (T ≤ 273.15 K) or eq. 6 over liquid water
//	pw    = φ·pws / 1000                                   [kPa]
//	α     = ln pw
//	tdp   = 6.54 + 14.526α + 0.7389α² + 0.09486α³ + 0.4569·pw^0.1984   (eq. 39)
//	tdp   = 6.09 + 12.608α + 0.4959α²        where eq. 39 is negative   (eq. 40)
//
// α is undefined when pw is zero (dry air) or when the saturation formula
// overflows. Those entries take the nearest finite α by position in the
// series, so a single bad hour borrows from its neighbours.
//
// # Reconciliation and Cleaning
//
// Redundant irradiance estimates are merged with [Coalesce]: first present
// value wins. [Aggregate] averages duplicate hours and [Sanitize] clears
// implausible temperatures:
//
//	tdb  [-55, 55] °C
//	tdp  [-60, 60] °C
//
// Out-of-range values become missing; they are not clamped to the bound.
package domain
