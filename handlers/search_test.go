package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocationCombined(t *testing.T) {
	lat, lng, err := parseLocation("28.6139,77.2090", "", "")
	require.NoError(t, err)
	require.NotNil(t, lat)
	require.NotNil(t, lng)
	assert.Equal(t, 28.6139, *lat)
	assert.Equal(t, 77.2090, *lng)
}

func TestParseLocationCombinedWithSpaces(t *testing.T) {
	lat, lng, err := parseLocation("28.6139, 77.2090", "", "")
	require.NoError(t, err)
	assert.Equal(t, 28.6139, *lat)
	assert.Equal(t, 77.2090, *lng)
}

func TestParseLocationSeparateParams(t *testing.T) {
	lat, lng, err := parseLocation("", "19.0760", "72.8777")
	require.NoError(t, err)
	assert.Equal(t, 19.0760, *lat)
	assert.Equal(t, 72.8777, *lng)
}

func TestParseLocationCombinedWinsOverSeparate(t *testing.T) {
	lat, lng, err := parseLocation("28.6139,77.2090", "0", "0")
	require.NoError(t, err)
	assert.Equal(t, 28.6139, *lat)
	assert.Equal(t, 77.2090, *lng)
}

func TestParseLocationAbsent(t *testing.T) {
	lat, lng, err := parseLocation("", "", "")
	require.NoError(t, err)
	assert.Nil(t, lat)
	assert.Nil(t, lng)
}

func TestParseLocationRejectsBadInput(t *testing.T) {
	tests := []struct{ location, lat, lng string }{
		{"28.6139", "", ""},
		{"a,b", "", ""},
		{"", "28.6139", ""},
		{"", "", "77.2090"},
		{"", "north", "77.2090"},
		{"", "28.6139", "east"},
	}
	for _, tt := range tests {
		_, _, err := parseLocation(tt.location, tt.lat, tt.lng)
		assert.Error(t, err, "location=%q lat=%q lng=%q", tt.location, tt.lat, tt.lng)
	}
}
