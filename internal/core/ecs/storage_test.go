package ecs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type token struct {
	X   float64
	Tag string
}

func TestStorageSpawnUsesLowestFreeSlot(t *testing.T) {
	s := NewStorage[token]()
	a := s.Spawn(token{Tag: "a"})
	b := s.Spawn(token{Tag: "b"})
	c := s.Spawn(token{Tag: "c"})
	require.Equal(t, uint32(0), a.Index())
	require.Equal(t, uint32(1), b.Index())
	require.Equal(t, uint32(2), c.Index())

	_, ok := s.Delete(c)
	require.True(t, ok)
	_, ok = s.Delete(a)
	require.True(t, ok)

	d := s.Spawn(token{Tag: "d"})
	assert.Equal(t, uint32(0), d.Index())
	assert.Equal(t, uint32(1), d.Generation())
	e := s.Spawn(token{Tag: "e"})
	assert.Equal(t, uint32(2), e.Index())
	assert.Equal(t, 3, s.Capacity())
	assert.Equal(t, 3, s.Len())
}

func TestStorageStaleIDAfterReuse(t *testing.T) {
	s := NewStorage[token]()
	old := s.Spawn(token{Tag: "old"})
	_, ok := s.Delete(old)
	require.True(t, ok)
	fresh := s.Spawn(token{Tag: "fresh"})
	require.Equal(t, old.Index(), fresh.Index())

	_, ok = s.Get(old)
	assert.False(t, ok)
	v, ok := s.Get(fresh)
	require.True(t, ok)
	assert.Equal(t, "fresh", v.Tag)

	_, ok = s.Delete(old)
	assert.False(t, ok, "stale delete must not remove the new occupant")
	assert.True(t, s.Alive(fresh))
}

func TestStorageLookupError(t *testing.T) {
	s := NewStorage[token]()
	id := s.Spawn(token{})
	s.Delete(id)

	_, err := s.Lookup(id)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	var accessErr *AccessError
	require.True(t, errors.As(err, &accessErr))
	assert.Equal(t, id, accessErr.ID)

	_, err = s.Lookup(Nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStorageCapacityIsHighWater(t *testing.T) {
	s := NewStorage[token]()
	ids := make([]EntityID, 5)
	for i := range ids {
		ids[i] = s.Spawn(token{X: float64(i)})
	}
	s.Delete(ids[4])
	s.Delete(ids[1])
	assert.Equal(t, 5, s.Capacity())
	assert.Equal(t, 3, s.Len())

	var seen []float64
	for i := 0; i < s.Capacity(); i++ {
		id, ok := s.IDAt(i)
		if !ok {
			continue
		}
		v, _ := s.Get(id)
		seen = append(seen, v.X)
	}
	assert.Equal(t, []float64{0, 2, 3}, seen)
	assert.Equal(t, []EntityID{ids[0], ids[2], ids[3]}, s.IDs())
}

func TestEntityIDString(t *testing.T) {
	assert.Equal(t, "nil", Nil.String())
	assert.Equal(t, "3#2", NewEntityID(3, 2).String())
	assert.True(t, Nil.IsNil())
}
