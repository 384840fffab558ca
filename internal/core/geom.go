// Package core provides fundamental types and utilities for the simulation.
// It contains no external dependencies (especially no Bubble Tea) to keep the
// engine and trainer pure and testable.
package core

import "math"

// Vec2 is a position or velocity on the board, in board pixels.
type Vec2 struct {
	X, Y float64
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

// Finite reports whether both components are finite numbers.
func (v Vec2) Finite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

// Box is an axis-aligned rectangle in board space. X, Y is the top-left corner.
type Box struct {
	X, Y float64
	W, H float64
}

// Left returns the x-coordinate of the left edge.
func (b Box) Left() float64 { return b.X }

// Right returns the x-coordinate of the right edge.
func (b Box) Right() float64 { return b.X + b.W }

// Top returns the y-coordinate of the top edge.
func (b Box) Top() float64 { return b.Y }

// Bottom returns the y-coordinate of the bottom edge.
func (b Box) Bottom() float64 { return b.Y + b.H }

// CenterY returns the vertical midpoint.
func (b Box) CenterY() float64 { return b.Y + b.H/2 }

// TouchesCircle reports whether a circle centered at c with radius r touches the box.
// The circle is approximated by its bounding square; touching edges count as contact.
func (b Box) TouchesCircle(c Vec2, r float64) bool {
	return c.X-r <= b.Right() && c.X+r >= b.Left() &&
		c.Y-r <= b.Bottom() && c.Y+r >= b.Top()
}

// Rect represents an axis-aligned bounding box in screen cells.
type Rect struct {
	X, Y int // Top-left corner position
	W, H int // Width and height
}

// NewRect creates a new rectangle with the given position and dimensions.
func NewRect(x, y, w, h int) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

// Right returns the x-coordinate of the right edge.
func (r Rect) Right() int {
	return r.X + r.W
}

// Bottom returns the y-coordinate of the bottom edge.
func (r Rect) Bottom() int {
	return r.Y + r.H
}

// Contains returns true if the point (x, y) is inside this rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.Right() && y >= r.Y && y < r.Bottom()
}

// Clamp restricts a value to be within [min, max].
func Clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// ClampF restricts a float64 value to be within [min, max].
func ClampF(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// Sign returns -1 for negative values and +1 otherwise.
// Zero maps to +1 so a serve always has a direction.
func Sign(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}
