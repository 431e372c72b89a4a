package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/homestead/internal/world"
)

func noop(world.Entity) error { return nil }

func TestCapabilityRegistry_RegisterLookup(t *testing.T) {
	r := NewCapabilityRegistry()
	require.NoError(t, r.Register("Pump", "Start", noop))
	require.NoError(t, r.Register("Pump", "Stop", noop))
	require.NoError(t, r.Register("Bucket", "Fill", noop))

	h, ok := r.Lookup("Pump", "Start")
	assert.True(t, ok)
	assert.NotNil(t, h)

	_, ok = r.Lookup("Pump", "Explode")
	assert.False(t, ok)

	assert.True(t, r.HasComponent("Bucket"))
	assert.False(t, r.HasComponent("Hose"))
	assert.Equal(t, []string{"Bucket.Fill", "Pump.Start", "Pump.Stop"}, r.Names())
}

func TestCapabilityRegistry_RejectsInvalid(t *testing.T) {
	r := NewCapabilityRegistry()
	require.NoError(t, r.Register("Pump", "Start", noop))

	err := r.Register("Pump", "Start", noop)
	require.Error(t, err)
	assert.True(t, IsDuplicateCapability(err))

	err = r.Register("", "Start", noop)
	require.Error(t, err)
	assert.False(t, IsDuplicateCapability(err))

	err = r.Register("Pump", "Stop", nil)
	require.Error(t, err)
	var re *RegistryError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ErrCodeInvalidName, re.Code)
	assert.Contains(t, err.Error(), "Pump.Stop")
}

func TestCapabilityRegistry_MustRegisterPanics(t *testing.T) {
	r := NewCapabilityRegistry()
	r.MustRegister("Pump", "Start", noop)
	assert.Panics(t, func() { r.MustRegister("Pump", "Start", noop) })
}

func TestCapabilityRegistry_NilSafe(t *testing.T) {
	var r *CapabilityRegistry
	_, ok := r.Lookup("Pump", "Start")
	assert.False(t, ok)
	assert.False(t, r.HasComponent("Pump"))
	assert.Nil(t, r.Names())
}

func TestParseCall(t *testing.T) {
	c, m, err := ParseCall("Pump.Start")
	require.NoError(t, err)
	assert.Equal(t, "Pump", c)
	assert.Equal(t, "Start", m)

	for _, bad := range []string{"", "Pump", "Pump.", ".Start", "a.b.c"} {
		_, _, err := ParseCall(bad)
		assert.Error(t, err, bad)
	}
}
