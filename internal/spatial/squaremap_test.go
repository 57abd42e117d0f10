package spatial

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l1jgo/shipcore/internal/core/ecs"
	"github.com/l1jgo/shipcore/internal/geom"
)

type body struct {
	Pos  geom.Vec2
	Node Node
	Tag  int
}

func bodyPos(b *body) *geom.Vec2 { return &b.Pos }
func bodyNode(b *body) *Node     { return &b.Node }

const (
	testCell = 10.0
	testHalf = 4
)

func newTestMap(t *testing.T) (*SquareMap[body], *ecs.World[body]) {
	t.Helper()
	m, err := New[body](Config{CellSize: testCell, HalfSide: testHalf}, bodyPos, bodyNode)
	require.NoError(t, err)
	w := ecs.NewWorld[body]()
	w.Register(m, true)
	return m, w
}

func spawnAt(w *ecs.World[body], x, y float64) ecs.EntityID {
	return w.Observe().Spawn(body{Pos: geom.V(x, y), Node: NewNode()})
}

func collect(m *SquareMap[body], s *ecs.Storage[body], sq int) []ecs.EntityID {
	var ids []ecs.EntityID
	m.EachInSquare(s, sq, func(id ecs.EntityID, _ *body) bool {
		ids = append(ids, id)
		return true
	})
	return ids
}

func TestConfigValidate(t *testing.T) {
	assert.Error(t, Config{CellSize: 0, HalfSide: 2}.Validate())
	assert.Error(t, Config{CellSize: 1, HalfSide: 0}.Validate())
	assert.Error(t, Config{CellSize: math.NaN(), HalfSide: 2}.Validate())
	assert.NoError(t, Config{CellSize: 1, HalfSide: 2}.Validate())
}

func TestSquareAdjacency(t *testing.T) {
	m, _ := newTestMap(t)
	side := m.Side()
	require.Equal(t, 2*testHalf, side)

	rng := rand.New(rand.NewSource(1))
	ext := m.Extent()
	for i := 0; i < 500; i++ {
		p := geom.V(rng.Float64()*2*ext-ext, rng.Float64()*2*ext-ext)
		sq, ok := m.Square(p)
		require.True(t, ok)

		if right, ok := m.Square(p.Add(geom.V(testCell, 0))); ok {
			assert.Equal(t, sq+1, right, "p=%v", p)
		}
		if up, ok := m.Square(p.Add(geom.V(0, testCell))); ok {
			assert.Equal(t, sq+side, up, "p=%v", p)
		}
	}
}

func TestSquareBounds(t *testing.T) {
	m, _ := newTestMap(t)
	ext := m.Extent()

	sq, ok := m.Square(geom.V(-ext, -ext))
	assert.True(t, ok)
	assert.Equal(t, 0, sq)

	sq, ok = m.Square(geom.V(ext-1e-9, ext-1e-9))
	assert.True(t, ok)
	assert.Equal(t, m.Side()*m.Side()-1, sq)

	for _, p := range []geom.Vec2{
		geom.V(ext, 0), geom.V(0, ext), geom.V(-ext-0.1, 0), geom.V(math.NaN(), 0),
	} {
		sq, ok := m.Square(p)
		assert.False(t, ok, "p=%v", p)
		assert.Equal(t, Unfiled, sq)
	}
}

func TestInsertManyIntoOneSquare(t *testing.T) {
	m, w := newTestMap(t)
	s := w.Storage()
	var ids []ecs.EntityID
	for i := 0; i < 7; i++ {
		ids = append(ids, spawnAt(w, 1+float64(i)*0.5, 2))
	}
	sq, _ := m.Square(geom.V(1, 2))

	assert.ElementsMatch(t, ids, collect(m, s, sq))
	assert.Equal(t, 7, m.Count(sq))
	require.NoError(t, m.Verify(s))
}

func TestDeleteFromSquare(t *testing.T) {
	m, w := newTestMap(t)
	s := w.Storage()
	var ids []ecs.EntityID
	for i := 0; i < 5; i++ {
		ids = append(ids, spawnAt(w, 3, 3))
	}
	sq, _ := m.Square(geom.V(3, 3))

	// head, middle and tail of the intrusive list
	for _, victim := range []ecs.EntityID{ids[4], ids[2], ids[0]} {
		before := m.Count(sq)
		_, ok := w.Observe().Delete(victim)
		require.True(t, ok)
		got := collect(m, s, sq)
		assert.Len(t, got, before-1)
		assert.NotContains(t, got, victim)
		require.NoError(t, m.Verify(s))
	}
	assert.ElementsMatch(t, []ecs.EntityID{ids[1], ids[3]}, collect(m, s, sq))
}

func TestUpdateRelocates(t *testing.T) {
	m, w := newTestMap(t)
	s := w.Storage()
	id := spawnAt(w, 1, 1)
	other := spawnAt(w, 2, 2)
	a, _ := m.Square(geom.V(1, 1))
	b, _ := m.Square(geom.V(25, -13))

	w.Observe().Mutate(id, func(v *body) { v.Pos = geom.V(25, -13) })

	assert.Equal(t, []ecs.EntityID{other}, collect(m, s, a))
	assert.Equal(t, []ecs.EntityID{id}, collect(m, s, b))
	assert.Equal(t, 1, m.Count(a))
	assert.Equal(t, 1, m.Count(b))
	require.NoError(t, m.Verify(s))
}

func TestUpdateWithinSquareKeepsLinks(t *testing.T) {
	m, w := newTestMap(t)
	s := w.Storage()
	a := spawnAt(w, 1, 1)
	b := spawnAt(w, 1.5, 1.5)
	sq, _ := m.Square(geom.V(1, 1))
	before := collect(m, s, sq)

	w.Observe().Mutate(a, func(v *body) { v.Pos = geom.V(9, 9) })
	assert.Equal(t, before, collect(m, s, sq), "in-cell movement must not relink")
	assert.ElementsMatch(t, []ecs.EntityID{a, b}, before)
}

func TestLeavingTheGridUnfiles(t *testing.T) {
	m, w := newTestMap(t)
	s := w.Storage()
	id := spawnAt(w, 0, 0)
	sq, _ := m.Square(geom.V(0, 0))

	w.Observe().Mutate(id, func(v *body) { v.Pos = geom.V(1000, 0) })
	v, _ := s.Get(id)
	assert.Equal(t, Unfiled, v.Node.Square)
	assert.Equal(t, 0, m.Count(sq))
	require.NoError(t, m.Verify(s))

	err := m.Update(s, id)
	assert.ErrorIs(t, err, ErrOutOfBounds)

	w.Observe().Mutate(id, func(v *body) { v.Pos = geom.V(0, 0) })
	assert.Equal(t, 1, m.Count(sq))
	require.NoError(t, m.Verify(s))
}

func TestInsertRefilesAlreadyFiledObject(t *testing.T) {
	m, w := newTestMap(t)
	s := w.Storage()
	a := spawnAt(w, 1, 1)
	id := spawnAt(w, 1.5, 1.5)
	c := spawnAt(w, 2, 2)
	from, _ := m.Square(geom.V(1, 1))
	to, _ := m.Square(geom.V(-15, 25))

	v, _ := s.GetMut(id)
	v.Pos = geom.V(-15, 25)
	require.NoError(t, m.Insert(s, id))

	assert.ElementsMatch(t, []ecs.EntityID{a, c}, collect(m, s, from))
	assert.Equal(t, 2, m.Count(from))
	assert.Equal(t, []ecs.EntityID{id}, collect(m, s, to))
	require.NoError(t, m.Verify(s))

	require.NoError(t, m.Insert(s, id))
	assert.Equal(t, 1, m.Count(to), "refiling in place must not double count")
	require.NoError(t, m.Verify(s))
}

func TestSpawnIgnoresCopiedLinks(t *testing.T) {
	m, w := newTestMap(t)
	s := w.Storage()
	first := spawnAt(w, 1, 1)
	v, _ := s.Get(first)
	dup := w.Observe().Spawn(*v)

	sq, _ := m.Square(geom.V(1, 1))
	assert.ElementsMatch(t, []ecs.EntityID{first, dup}, collect(m, s, sq))
	assert.Equal(t, 2, m.Count(sq))
	require.NoError(t, m.Verify(s))
}

func TestInsertOutOfBounds(t *testing.T) {
	m, w := newTestMap(t)
	s := w.Storage()
	id := s.Spawn(body{Pos: geom.V(0, -500), Node: NewNode()})
	err := m.Insert(s, id)
	assert.ErrorIs(t, err, ErrOutOfBounds)

	err = m.Insert(s, ecs.NewEntityID(99, 0))
	assert.ErrorIs(t, err, ecs.ErrNotFound)
}

func TestWithin(t *testing.T) {
	m, w := newTestMap(t)
	s := w.Storage()
	in1 := spawnAt(w, 5, 5)
	in2 := spawnAt(w, -4, 12)
	spawnAt(w, -6, 5)
	spawnAt(w, 30, 30)

	var got []ecs.EntityID
	m.Within(s, geom.V(-5, 0), geom.V(5, 12), func(id ecs.EntityID, _ *body) {
		got = append(got, id)
	})
	assert.ElementsMatch(t, []ecs.EntityID{in1, in2}, got)

	got = got[:0]
	m.Within(s, geom.V(math.Inf(-1), math.Inf(-1)), geom.V(math.Inf(1), math.Inf(1)), func(id ecs.EntityID, _ *body) {
		got = append(got, id)
	})
	assert.Len(t, got, 4)
}

func TestRingOffsets(t *testing.T) {
	var zero [][2]int
	eachRingOffset(0, func(x, y int) { zero = append(zero, [2]int{x, y}) })
	assert.Equal(t, [][2]int{{0, 0}}, zero)

	for d := 1; d <= 5; d++ {
		var got [][2]int
		seen := make(map[[2]int]bool)
		eachRingOffset(d, func(x, y int) {
			got = append(got, [2]int{x, y})
			seen[[2]int{x, y}] = true
			assert.Equal(t, d, max(abs(x), abs(y)), "offset (%d,%d) not on ring %d", x, y, d)
		})
		assert.Len(t, got, 8*d)
		assert.Len(t, seen, 8*d, "ring %d visits a cell twice", d)
		assert.Equal(t, [2]int{-d, -d}, got[0])
		assert.Equal(t, [2]int{-d, -d + 1}, got[1], "clockwise starts up the left side")
		assert.Equal(t, [2]int{-d, d}, got[2*d])
		assert.Equal(t, [2]int{d, d}, got[4*d])
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func bruteClosest(s *ecs.Storage[body], origin geom.Vec2, rng float64, pred func(ecs.EntityID, *body) bool) (ecs.EntityID, bool) {
	best := ecs.Nil
	bestDist := math.Inf(1)
	s.Each(func(id ecs.EntityID, v *body) {
		d := origin.Dist(v.Pos)
		if d > rng || (pred != nil && !pred(id, v)) {
			return
		}
		if d < bestDist || (d == bestDist && id.Index() < best.Index()) {
			best, bestDist = id, d
		}
	})
	return best, best != ecs.Nil
}

func TestFindClosestMatchesBruteForce(t *testing.T) {
	m, w := newTestMap(t)
	s := w.Storage()
	rng := rand.New(rand.NewSource(7))
	ext := m.Extent()
	for i := 0; i < 200; i++ {
		w.Observe().Spawn(body{
			Pos:  geom.V(rng.Float64()*2*ext-ext, rng.Float64()*2*ext-ext),
			Node: NewNode(),
			Tag:  i,
		})
	}
	notThrees := func(_ ecs.EntityID, v *body) bool { return v.Tag%3 != 0 }

	for i := 0; i < 300; i++ {
		origin := geom.V(rng.Float64()*2.4*ext-1.2*ext, rng.Float64()*2.4*ext-1.2*ext)
		r := rng.Float64() * ext
		var pred func(ecs.EntityID, *body) bool
		if i%2 == 1 {
			pred = notThrees
		}
		want, wantOK := bruteClosest(s, origin, r, pred)
		got, dist, ok := m.FindClosest(s, origin, r, pred)
		require.Equal(t, wantOK, ok, "origin=%v range=%v", origin, r)
		if ok {
			require.Equal(t, want, got, "origin=%v range=%v", origin, r)
			v, _ := s.Get(got)
			assert.Equal(t, origin.Dist(v.Pos), dist)
			assert.LessOrEqual(t, dist, r)
		}
	}
}

func TestFindClosestFinishesTheRing(t *testing.T) {
	m, w := newTestMap(t)
	s := w.Storage()
	// Origin near the top of its cell. The first ring-1 cell visited holds a
	// far object; a nearer one sits in a cell visited later in the same ring.
	origin := geom.V(5, 9)
	farFirst := spawnAt(w, -9, -9)
	nearLater := spawnAt(w, 5, 11)

	got, dist, ok := m.FindClosest(s, origin, 30, nil)
	require.True(t, ok)
	assert.Equal(t, nearLater, got)
	assert.InDelta(t, 2, dist, 1e-12)
	assert.NotEqual(t, farFirst, got)
}

func TestFindClosestTiesGoToLowerIndex(t *testing.T) {
	m, w := newTestMap(t)
	s := w.Storage()
	a := spawnAt(w, 3, 0)
	b := spawnAt(w, -3, 0)
	c := spawnAt(w, 0, -3)

	got, _, ok := m.FindClosest(s, geom.V(0, 0), 5, nil)
	require.True(t, ok)
	assert.Equal(t, a, got)

	w.Observe().Delete(a)
	got, _, _ = m.FindClosest(s, geom.V(0, 0), 5, nil)
	assert.Equal(t, b, got)

	got, _, _ = m.FindClosest(s, geom.V(0, 0), 5, func(id ecs.EntityID, _ *body) bool { return id != b })
	assert.Equal(t, c, got)
}

func TestFindClosestNone(t *testing.T) {
	m, w := newTestMap(t)
	s := w.Storage()
	spawnAt(w, 30, 30)

	_, _, ok := m.FindClosest(s, geom.V(0, 0), 10, nil)
	assert.False(t, ok)
	_, _, ok = m.FindClosest(s, geom.V(0, 0), 100, func(ecs.EntityID, *body) bool { return false })
	assert.False(t, ok)
	_, _, ok = m.FindClosest(s, geom.V(5000, 5000), 10, nil)
	assert.False(t, ok)
	_, _, ok = m.FindClosest(s, geom.V(0, 0), math.Inf(1), nil)
	assert.True(t, ok)
}
