package spatial

import (
	"math"

	"github.com/l1jgo/shipcore/internal/core/ecs"
	"github.com/l1jgo/shipcore/internal/geom"
)

// eachRingOffset calls fn with every cell offset at Chebyshev distance d,
// clockwise from (-d, -d): up the left side, across the top, down the right
// side and back along the bottom. Offsets are stepped incrementally; a turn
// maps direction (dx, dy) to (dy, -dx).
func eachRingOffset(d int, fn func(ox, oy int)) {
	if d == 0 {
		fn(0, 0)
		return
	}
	ox, oy := -d, -d
	dx, dy := 0, 1
	for side := 0; side < 4; side++ {
		for step := 0; step < 2*d; step++ {
			fn(ox, oy)
			ox += dx
			oy += dy
		}
		dx, dy = dy, -dx
	}
}

// FindClosest returns the object nearest to origin whose distance is at most
// rng and for which pred holds (nil accepts everything). Equal distances go to
// the lower slot index.
//
// Cells are searched ring by ring outward from the cell containing origin.
// A ring that is started is always finished. The search stops at depth
// ceil(rng/cellSize), or earlier once no cell of the next ring can hold
// anything closer than the best candidate.
func (m *SquareMap[T]) FindClosest(s *ecs.Storage[T], origin geom.Vec2, rng float64, pred func(ecs.EntityID, *T) bool) (ecs.EntityID, float64, bool) {
	if !(rng >= 0) || math.IsNaN(origin.X) || math.IsNaN(origin.Y) {
		return ecs.Nil, 0, false
	}
	off := m.Extent()
	// Nothing can be in range if the whole grid is farther away than rng.
	gap := geom.V(
		math.Max(0, math.Max(-off-origin.X, origin.X-off)),
		math.Max(0, math.Max(-off-origin.Y, origin.Y-off)),
	)
	if gap.Len() > rng {
		return ecs.Nil, 0, false
	}

	gx := (origin.X + off) / m.cell
	gy := (origin.Y + off) / m.cell
	fcx, fcy := math.Floor(gx), math.Floor(gy)
	cx, cy := int(fcx), int(fcy)
	fx, fy := (gx-fcx)*m.cell, (gy-fcy)*m.cell
	edge := math.Min(math.Min(fx, m.cell-fx), math.Min(fy, m.cell-fy))

	// Past this depth every ring lies entirely outside the grid.
	maxDepth := max(cx, m.side-1-cx, cy, m.side-1-cy)
	if depth := math.Ceil(rng / m.cell); depth < float64(maxDepth) {
		maxDepth = int(depth)
	}
	best := ecs.Nil
	bestDist := math.Inf(1)
	found := false

	visit := func(ox, oy int) {
		x, y := cx+ox, cy+oy
		if !m.inGrid(x, y) {
			return
		}
		m.EachInSquare(s, x+y*m.side, func(id ecs.EntityID, v *T) bool {
			dist := origin.Dist(*m.pos(v))
			if dist > rng {
				return true
			}
			if found && (dist > bestDist || (dist == bestDist && id.Index() > best.Index())) {
				return true
			}
			if pred != nil && !pred(id, v) {
				return true
			}
			best, bestDist, found = id, dist, true
			return true
		})
	}

	for d := 0; d <= maxDepth; d++ {
		if d > 0 {
			lower := float64(d-1)*m.cell + edge
			if lower > rng || (found && lower > bestDist) {
				break
			}
		}
		eachRingOffset(d, visit)
	}
	if !found {
		return ecs.Nil, 0, false
	}
	return best, bestDist, true
}
