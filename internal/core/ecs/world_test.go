package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type parentOf struct {
	NopObserver[token]
	world    *World[token]
	children map[EntityID][]EntityID
}

func (p *parentOf) OnDelete(_ *Storage[token], id EntityID) {
	for _, c := range p.children[id] {
		p.world.MarkForDestruction(c)
	}
	delete(p.children, id)
}

func TestFlushDestroyQueueCascades(t *testing.T) {
	w := NewWorld[token]()
	tree := &parentOf{world: w, children: make(map[EntityID][]EntityID)}
	w.Register(tree, false)

	obs := w.Observe()
	root := obs.Spawn(token{Tag: "root"})
	mid := obs.Spawn(token{Tag: "mid"})
	leaf := obs.Spawn(token{Tag: "leaf"})
	other := obs.Spawn(token{Tag: "other"})
	tree.children[root] = []EntityID{mid}
	tree.children[mid] = []EntityID{leaf}

	w.MarkForDestruction(root)
	w.MarkForDestruction(root)
	n := w.FlushDestroyQueue()

	assert.Equal(t, 3, n)
	assert.Equal(t, 0, w.Pending())
	assert.False(t, w.Alive(root))
	assert.False(t, w.Alive(mid))
	assert.False(t, w.Alive(leaf))
	assert.True(t, w.Alive(other))
}

func TestWorldHotRegistryOnlySeesMutations(t *testing.T) {
	w := NewWorld[token]()
	var hotMutations, coldMutations, coldSpawns int
	w.Register(ObserverFuncs[token]{
		Mutate: func(*Storage[token], EntityID) { hotMutations++ },
	}, true)
	w.Register(ObserverFuncs[token]{
		Spawn:  func(*Storage[token], EntityID) { coldSpawns++ },
		Mutate: func(*Storage[token], EntityID) { coldMutations++ },
	}, false)

	id := w.Observe().Spawn(token{})
	require.True(t, w.Observe().Mutate(id, func(p *token) { p.X++ }))

	assert.Equal(t, 1, hotMutations)
	assert.Equal(t, 0, coldMutations)
	assert.Equal(t, 1, coldSpawns)
}
