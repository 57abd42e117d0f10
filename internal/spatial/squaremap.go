// Package spatial is a uniform-grid index over the play field. Each cell keeps
// only the head of an intrusive doubly-linked list; the links live in a Node
// inside every indexed object.
package spatial

import (
	"errors"
	"fmt"
	"math"

	"github.com/l1jgo/shipcore/internal/core/ecs"
	"github.com/l1jgo/shipcore/internal/geom"
)

// Unfiled is the Square of a node that is not in any cell.
const Unfiled = -1

// ErrOutOfBounds is returned when an object lies outside the grid extent.
var ErrOutOfBounds = errors.New("position outside grid")

// Node is the linkage component stored on each indexed object.
// Square is only meaningful after the map has observed the latest position.
type Node struct {
	Next   ecs.EntityID
	Prev   ecs.EntityID
	Square int
}

func NewNode() Node {
	return Node{Next: ecs.Nil, Prev: ecs.Nil, Square: Unfiled}
}

// Config sizes the grid: cells of CellSize covering [-HalfSide*CellSize,
// HalfSide*CellSize) on both axes.
type Config struct {
	CellSize float64 `toml:"cell_size"`
	HalfSide int     `toml:"half_side"`
}

func (c Config) Validate() error {
	if !(c.CellSize > 0) || math.IsInf(c.CellSize, 0) {
		return fmt.Errorf("grid cell_size must be positive, got %v", c.CellSize)
	}
	if c.HalfSide <= 0 {
		return fmt.Errorf("grid half_side must be positive, got %d", c.HalfSide)
	}
	return nil
}

// SquareMap indexes objects of type T by the cell their position falls in.
// It is an ecs.Observer: register it with the world so every spawn, mutation
// and deletion keeps it current.
type SquareMap[T any] struct {
	cell   float64
	half   int
	side   int
	heads  []ecs.EntityID
	counts []int
	pos    ecs.Accessor[T, geom.Vec2]
	node   ecs.Accessor[T, Node]
}

func New[T any](cfg Config, pos ecs.Accessor[T, geom.Vec2], node ecs.Accessor[T, Node]) (*SquareMap[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	side := 2 * cfg.HalfSide
	m := &SquareMap[T]{
		cell:   cfg.CellSize,
		half:   cfg.HalfSide,
		side:   side,
		heads:  make([]ecs.EntityID, side*side),
		counts: make([]int, side*side),
		pos:    pos,
		node:   node,
	}
	for i := range m.heads {
		m.heads[i] = ecs.Nil
	}
	return m, nil
}

// Side is the number of cells along one axis.
func (m *SquareMap[T]) Side() int { return m.side }

func (m *SquareMap[T]) CellSize() float64 { return m.cell }

// Extent is the half width of the indexed area.
func (m *SquareMap[T]) Extent() float64 { return float64(m.half) * m.cell }

// Cells returns the cell coordinates of p, which may lie outside the grid.
func (m *SquareMap[T]) Cells(p geom.Vec2) (cx, cy int) {
	off := m.Extent()
	return int(math.Floor((p.X + off) / m.cell)), int(math.Floor((p.Y + off) / m.cell))
}

// Square returns the cell index of p, or (Unfiled, false) outside the grid.
func (m *SquareMap[T]) Square(p geom.Vec2) (int, bool) {
	off := m.Extent()
	if !(p.X >= -off && p.X < off && p.Y >= -off && p.Y < off) {
		return Unfiled, false
	}
	cx, cy := m.Cells(p)
	// Rounding can push a value just under the upper bound onto the edge.
	if cx >= m.side {
		cx = m.side - 1
	}
	if cy >= m.side {
		cy = m.side - 1
	}
	return cx + cy*m.side, true
}

func (m *SquareMap[T]) inGrid(cx, cy int) bool {
	return cx >= 0 && cx < m.side && cy >= 0 && cy < m.side
}

// Insert files id under the cell of its current position. An object already
// filed is unlinked from its old cell first.
func (m *SquareMap[T]) Insert(s *ecs.Storage[T], id ecs.EntityID) error {
	v, err := s.Lookup(id)
	if err != nil {
		return err
	}
	m.Delete(s, id)
	n := m.node(v)
	p := *m.pos(v)
	sq, ok := m.Square(p)
	if !ok {
		return fmt.Errorf("insert %s at (%.2f, %.2f): %w", id, p.X, p.Y, ErrOutOfBounds)
	}
	head := m.heads[sq]
	if head != ecs.Nil {
		if hv, ok := s.GetMut(head); ok {
			m.node(hv).Prev = id
		}
	}
	n.Next = head
	n.Square = sq
	m.heads[sq] = id
	m.counts[sq]++
	return nil
}

// Delete unlinks id from the cell its node says it is in.
func (m *SquareMap[T]) Delete(s *ecs.Storage[T], id ecs.EntityID) {
	v, ok := s.GetMut(id)
	if !ok {
		return
	}
	n := m.node(v)
	if n.Square == Unfiled {
		return
	}
	if n.Prev != ecs.Nil {
		if pv, ok := s.GetMut(n.Prev); ok {
			m.node(pv).Next = n.Next
		}
	} else {
		m.heads[n.Square] = n.Next
	}
	if n.Next != ecs.Nil {
		if nv, ok := s.GetMut(n.Next); ok {
			m.node(nv).Prev = n.Prev
		}
	}
	m.counts[n.Square]--
	n.Next, n.Prev, n.Square = ecs.Nil, ecs.Nil, Unfiled
}

// Update refiles id when its position moved it to a different cell. An object
// that left the grid is unlinked and ErrOutOfBounds returned.
func (m *SquareMap[T]) Update(s *ecs.Storage[T], id ecs.EntityID) error {
	v, err := s.Lookup(id)
	if err != nil {
		return err
	}
	sq, ok := m.Square(*m.pos(v))
	if ok && sq == m.node(v).Square {
		return nil
	}
	return m.Insert(s, id)
}

func (m *SquareMap[T]) OnSpawn(s *ecs.Storage[T], id ecs.EntityID) {
	// A new object is never linked, whatever node it was copied with.
	if v, ok := s.GetMut(id); ok {
		*m.node(v) = NewNode()
	}
	_ = m.Insert(s, id)
}

func (m *SquareMap[T]) OnMutation(s *ecs.Storage[T], id ecs.EntityID) {
	_ = m.Update(s, id)
}

func (m *SquareMap[T]) OnDelete(s *ecs.Storage[T], id ecs.EntityID) {
	m.Delete(s, id)
}

// Count is the number of objects filed under sq.
func (m *SquareMap[T]) Count(sq int) int {
	if sq < 0 || sq >= len(m.counts) {
		return 0
	}
	return m.counts[sq]
}

// EachInSquare walks the objects filed under sq until fn returns false.
func (m *SquareMap[T]) EachInSquare(s *ecs.Storage[T], sq int, fn func(ecs.EntityID, *T) bool) {
	if sq < 0 || sq >= len(m.heads) {
		return
	}
	id := m.heads[sq]
	for id != ecs.Nil {
		v, ok := s.Get(id)
		if !ok {
			return
		}
		next := m.node(v).Next
		if !fn(id, v) {
			return
		}
		id = next
	}
}

// Within visits every object whose position lies in the rectangle [min, max].
// fn must not move objects.
func (m *SquareMap[T]) Within(s *ecs.Storage[T], min, max geom.Vec2, fn func(ecs.EntityID, *T)) {
	x0, y0 := m.clampedCell(min.X), m.clampedCell(min.Y)
	x1, y1 := m.clampedCell(max.X), m.clampedCell(max.Y)
	for cy := y0; cy <= y1; cy++ {
		for cx := x0; cx <= x1; cx++ {
			m.EachInSquare(s, cx+cy*m.side, func(id ecs.EntityID, v *T) bool {
				p := *m.pos(v)
				if p.X >= min.X && p.X <= max.X && p.Y >= min.Y && p.Y <= max.Y {
					fn(id, v)
				}
				return true
			})
		}
	}
}

// Verify checks that every live object is filed under the cell of its
// current position and that the cell lists agree with the counts.
func (m *SquareMap[T]) Verify(s *ecs.Storage[T]) error {
	total := 0
	for sq := range m.heads {
		n := 0
		prev := ecs.Nil
		var err error
		m.EachInSquare(s, sq, func(id ecs.EntityID, v *T) bool {
			node := m.node(v)
			if node.Square != sq {
				err = fmt.Errorf("%s listed in square %d but node says %d", id, sq, node.Square)
				return false
			}
			if node.Prev != prev {
				err = fmt.Errorf("%s prev link %s, want %s", id, node.Prev, prev)
				return false
			}
			prev = id
			n++
			return true
		})
		if err != nil {
			return err
		}
		if n != m.counts[sq] {
			return fmt.Errorf("square %d lists %d objects, count says %d", sq, n, m.counts[sq])
		}
		total += n
	}
	filed := 0
	var err error
	s.Each(func(id ecs.EntityID, v *T) {
		if err != nil {
			return
		}
		want, ok := m.Square(*m.pos(v))
		got := m.node(v).Square
		if !ok {
			want = Unfiled
		}
		if got != want {
			err = fmt.Errorf("%s filed under %d, position is in %d", id, got, want)
		}
		if got != Unfiled {
			filed++
		}
	})
	if err != nil {
		return err
	}
	if filed != total {
		return fmt.Errorf("%d objects filed, %d reachable from cells", filed, total)
	}
	return nil
}

// clampedCell is the cell coordinate of v along one axis, pinned to the grid.
func (m *SquareMap[T]) clampedCell(v float64) int {
	f := math.Floor((v + m.Extent()) / m.cell)
	switch {
	case math.IsNaN(f) || f < 0:
		return 0
	case f > float64(m.side-1):
		return m.side - 1
	}
	return int(f)
}
