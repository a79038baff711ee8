package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSitePayload(t *testing.T) {
	assert.Nil(t, NewSitePayload(nil))

	p := NewSitePayload(&Site{Name: "Geneva", Code: "GEN", WMO: "067700", Latitude: 46.23, Longitude: 0, TimeZone: 1, Altitude: Missing()})
	require.NotNil(t, p)
	require.NotNil(t, p.Longitude)
	assert.Zero(t, *p.Longitude, "zero is a value, not missing")
	assert.Nil(t, p.Altitude)

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"altitude":null`)
	assert.Contains(t, string(data), `"latitude":46.23`)
}
