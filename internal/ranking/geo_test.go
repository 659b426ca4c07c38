package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	seoul = Position{Lat: 37.5665, Lon: 126.9780}
	busan = Position{Lat: 35.1796, Lon: 129.0756}
)

func TestHaversineZeroForSamePoint(t *testing.T) {
	assert.Equal(t, 0.0, Haversine(seoul, seoul))
}

func TestHaversineSeoulBusan(t *testing.T) {
	d := Haversine(seoul, busan)
	assert.InDelta(t, 325.0, d, 5.0)
}

func TestHaversineSymmetric(t *testing.T) {
	assert.InDelta(t, Haversine(seoul, busan), Haversine(busan, seoul), 1e-9)
}

func TestHaversineShortDistance(t *testing.T) {
	// Gangnam station to Yeoksam station, roughly 700m apart.
	gangnam := Position{Lat: 37.4979, Lon: 127.0276}
	yeoksam := Position{Lat: 37.5006, Lon: 127.0364}

	d := Haversine(gangnam, yeoksam)
	assert.Greater(t, d, 0.5)
	assert.Less(t, d, 1.5)
}
