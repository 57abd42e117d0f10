package component

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGunRecoil(t *testing.T) {
	g := Gun{Cooldown: 0.5}
	require.True(t, g.Fire())
	assert.True(t, g.Triggered)
	assert.Equal(t, 0.5, g.Timer)
	assert.False(t, g.Fire(), "recoiling gun must not fire")

	g.Tick(0.3)
	assert.InDelta(t, 0.2, g.Timer, 1e-12)
	g.Tick(1)
	assert.Equal(t, 0.0, g.Timer)
	assert.True(t, g.Ready())
}

func TestEngineLevels(t *testing.T) {
	e := Engine{MaxLevel: 2, Thrust: 10}
	assert.False(t, e.Decrease())
	assert.True(t, e.Increase())
	assert.Equal(t, 5.0, e.Force())
	assert.True(t, e.Increase())
	assert.False(t, e.Increase())
	assert.Equal(t, 1.0, e.Throttle())
	assert.Equal(t, 0.0, Engine{}.Throttle())
}

func TestHitPoints(t *testing.T) {
	h := HitPoints{Current: 5, Max: 10}
	h.Damage(7)
	assert.Equal(t, int32(0), h.Current)
	assert.True(t, h.Dead())
	h.Restore()
	assert.Equal(t, int32(10), h.Current)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("turret")
	require.NoError(t, err)
	assert.Equal(t, KindTurret, k)
	assert.Equal(t, "turret", k.String())

	_, err = ParseKind("battleship")
	assert.Error(t, err)
	assert.Equal(t, "kind(200)", Kind(200).String())
}
