// Package geom holds the flat-world vector math used by movement,
// range checks and interest management. Positions live on the XZ
// plane; Y is carried for the client but never enters distance math.
package geom

import (
	"fmt"
	"math"
	"math/rand"
)

// Vector3 is a world position or direction. All server-side distance
// and movement math ignores Y.
type Vector3 struct {
	X float32
	Y float32
	Z float32
}

func New(x, y, z float32) Vector3 {
	return Vector3{X: x, Y: y, Z: z}
}

// Zero is the world origin.
var Zero = Vector3{}

func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

func (v Vector3) Sub(o Vector3) Vector3 {
	return Vector3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

func (v Vector3) Scale(s float32) Vector3 {
	return Vector3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// SqrDistance returns the squared planar distance between a and b.
// Prefer this over Distance for range comparisons.
func SqrDistance(a, b Vector3) float32 {
	dx := a.X - b.X
	dz := a.Z - b.Z
	return dx*dx + dz*dz
}

// Distance returns the planar distance between a and b.
func Distance(a, b Vector3) float32 {
	return float32(math.Sqrt(float64(SqrDistance(a, b))))
}

// Length returns the planar magnitude of v.
func (v Vector3) Length() float32 {
	return float32(math.Sqrt(float64(v.X*v.X + v.Z*v.Z)))
}

// Normalized returns v scaled to unit planar length. The zero vector
// normalizes to itself.
func (v Vector3) Normalized() Vector3 {
	l := v.Length()
	if l == 0 {
		return Vector3{}
	}
	return Vector3{X: v.X / l, Y: v.Y, Z: v.Z / l}
}

// DirectionTo returns the unit direction from v toward target.
func (v Vector3) DirectionTo(target Vector3) Vector3 {
	return target.Sub(v).Normalized()
}

// RandomInCircle returns a uniformly distributed point within radius
// of center, at center's height.
func RandomInCircle(center Vector3, radius float32) Vector3 {
	angle := rand.Float64() * 2 * math.Pi
	r := float64(radius) * math.Sqrt(rand.Float64())
	return Vector3{
		X: center.X + float32(r*math.Cos(angle)),
		Y: center.Y,
		Z: center.Z + float32(r*math.Sin(angle)),
	}
}

func (v Vector3) String() string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", v.X, v.Y, v.Z)
}
