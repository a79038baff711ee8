package domain

// SitePayload is the JSON form of a Site. Missing coordinates are null.
type SitePayload struct {
	Name      string   `json:"location"`
	Code      string   `json:"loccode"`
	WMO       string   `json:"wmo"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	TimeZone  *float64 `json:"tz"`
	Altitude  *float64 `json:"altitude"`
}

// NewSitePayload converts s for the wire. A nil site gives nil.
func NewSitePayload(s *Site) *SitePayload {
	if s == nil {
		return nil
	}
	return &SitePayload{
		Name:      s.Name,
		Code:      s.Code,
		WMO:       s.WMO,
		Latitude:  Nullable(s.Latitude),
		Longitude: Nullable(s.Longitude),
		TimeZone:  Nullable(s.TimeZone),
		Altitude:  Nullable(s.Altitude),
	}
}

// Nullable returns nil for a missing value and a pointer to v otherwise.
func Nullable(v float64) *float64 {
	if IsMissing(v) {
		return nil
	}
	return &v
}
