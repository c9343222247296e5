package ext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailability(t *testing.T) {
	assert.True(t, Available().OK)
	assert.Equal(t, "available", Available().String())

	u := Unavailable("wrong version")
	assert.False(t, u.OK)
	assert.Equal(t, "unavailable: wrong version", u.String())
	assert.Equal(t, "unavailable", Unavailable("").String())
}

func TestRegister_NilProbeMeansAvailable(t *testing.T) {
	r := NewRegistry()
	d := stubDescriptor("compiled-in", "x")
	d.Probe = nil
	require.NoError(t, r.Register(d))
	assert.True(t, r.IsRegistered("compiled-in"))
}

func TestRegister_ProbeRunsOncePerRegistration(t *testing.T) {
	r := NewRegistry()
	probes := 0
	d := stubDescriptor("chartA", "x")
	d.Probe = func() Availability {
		probes++
		return Available()
	}
	require.NoError(t, r.Register(d))

	// lookups never re-probe
	host := &stubHost{}
	_, err := host.cache.Resolve(r, host, "chartA")
	require.NoError(t, err)
	_, err = host.cache.Resolve(r, host, "chartA")
	require.NoError(t, err)
	assert.Equal(t, 1, probes)
}
