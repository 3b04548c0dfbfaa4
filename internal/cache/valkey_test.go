package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildKey(t *testing.T) {
	assert.Equal(t, "yatra:otp:+919800000001", buildKey("yatra", "otp", "+919800000001"))
	assert.Equal(t, "yatra:trips:3:page=1", buildKey("yatra", "trips", "3", "page=1"))
	assert.Equal(t, "yatra", buildKey("yatra"))
}

func TestTripsPageKeyUsesGivenVersion(t *testing.T) {
	v := &ValkeyClient{prefix: "yatra"}
	assert.Equal(t, "yatra:trips:3:page=1", v.tripsPageKey(3, "page=1"))
	assert.NotEqual(t, v.tripsPageKey(3, "page=1"), v.tripsPageKey(4, "page=1"))
}
