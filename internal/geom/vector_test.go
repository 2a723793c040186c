package geom

import (
	"math"
	"testing"
)

func TestSqrDistanceIgnoresY(t *testing.T) {
	t.Parallel()

	a := New(0, 100, 0)
	b := New(3, -50, 4)
	if got := SqrDistance(a, b); got != 25 {
		t.Fatalf("SqrDistance = %v, want 25", got)
	}
	if got := Distance(a, b); got != 5 {
		t.Fatalf("Distance = %v, want 5", got)
	}
}

func TestDistanceMatchesSqrDistance(t *testing.T) {
	t.Parallel()

	a := New(1.5, 0, -2)
	b := New(-4, 7, 3.25)
	d := Distance(a, b)
	sq := SqrDistance(a, b)
	if diff := math.Abs(float64(d*d - sq)); diff > 1e-3 {
		t.Fatalf("Distance^2 = %v, SqrDistance = %v", d*d, sq)
	}
}

func TestNormalized(t *testing.T) {
	t.Parallel()

	v := New(10, 5, 0).Normalized()
	if v.X != 1 || v.Z != 0 {
		t.Fatalf("Normalized = %v, want unit X", v)
	}
	if got := Zero.Normalized(); got != Zero {
		t.Fatalf("zero vector normalized to %v", got)
	}
}

func TestRandomInCircleStaysInside(t *testing.T) {
	t.Parallel()

	center := New(100, 0, 100)
	for i := 0; i < 200; i++ {
		p := RandomInCircle(center, 15)
		if SqrDistance(center, p) > 15*15+1e-3 {
			t.Fatalf("point %v outside radius", p)
		}
		if p.Y != center.Y {
			t.Fatalf("Y changed: %v", p.Y)
		}
	}
}
