// Package geom holds the small amount of 2D vector math the simulation needs.
//
// Angles are radians. Rotation 0 faces +Y and positive rotation is
// counter-clockwise.
package geom

import "math"

// Epsilon is the tolerance below which angles and lengths count as zero.
const Epsilon = 1e-6

type Vec2 struct {
	X float64 `yaml:"x" toml:"x" msgpack:"x"`
	Y float64 `yaml:"y" toml:"y" msgpack:"y"`
}

func V(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

func (v Vec2) Add(o Vec2) Vec2       { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2       { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(k float64) Vec2  { return Vec2{v.X * k, v.Y * k} }
func (v Vec2) Dot(o Vec2) float64    { return v.X*o.X + v.Y*o.Y }
func (v Vec2) Cross(o Vec2) float64  { return v.X*o.Y - v.Y*o.X }
func (v Vec2) Len() float64          { return math.Hypot(v.X, v.Y) }
func (v Vec2) LenSq() float64        { return v.X*v.X + v.Y*v.Y }
func (v Vec2) Dist(o Vec2) float64   { return v.Sub(o).Len() }
func (v Vec2) DistSq(o Vec2) float64 { return v.Sub(o).LenSq() }

// Normalize returns the unit vector, or the zero vector for near-zero input.
func (v Vec2) Normalize() Vec2 {
	l := v.Len()
	if l < Epsilon {
		return Vec2{}
	}
	return v.Scale(1 / l)
}

// Rotate turns v counter-clockwise by a.
func (v Vec2) Rotate(a float64) Vec2 {
	s, c := math.Sincos(a)
	return Vec2{v.X*c - v.Y*s, v.X*s + v.Y*c}
}

// Clamp limits both coordinates to [min, max].
func (v Vec2) Clamp(min, max Vec2) Vec2 {
	return Vec2{Clamp(v.X, min.X, max.X), Clamp(v.Y, min.Y, max.Y)}
}

// Heading is the unit facing vector for a rotation.
func Heading(rotation float64) Vec2 {
	s, c := math.Sincos(rotation)
	return Vec2{-s, c}
}

// RotationOf is the rotation whose heading points along v.
func RotationOf(v Vec2) float64 {
	return math.Atan2(-v.X, v.Y)
}

// SignedAngle is the angle from a to b in (-pi, pi]; positive is counter-clockwise.
func SignedAngle(a, b Vec2) float64 {
	return math.Atan2(a.Cross(b), a.Dot(b))
}

// NormalizeAngle wraps a into (-pi, pi].
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a <= -math.Pi {
		a += 2 * math.Pi
	} else if a > math.Pi {
		a -= 2 * math.Pi
	}
	return a
}

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
