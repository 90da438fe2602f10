package model

// The container's local frame: X runs across the open face (width axis W),
// Y runs up (height axis H), Z runs into the container (depth axis D).
// Z = 0 is the open face.

// Vec3 is a coordinate in a container's local frame, in cm.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Box is an axis-aligned box: origin corner plus extents along each axis.
// W spans the X axis, H the Y axis, D the Z axis.
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
	H float64 `json:"h"`
	D float64 `json:"d"`
}

// End returns the far corner of the box.
func (b Box) End() Vec3 {
	return Vec3{X: b.X + b.W, Y: b.Y + b.H, Z: b.Z + b.D}
}

// Volume returns the box volume in cubic cm.
func (b Box) Volume() float64 {
	return b.W * b.H * b.D
}

// Fits reports whether extents (w, h, d) fit inside the box, allowing
// equality within eps on each axis.
func (b Box) Fits(w, h, d, eps float64) bool {
	return w <= b.W+eps && h <= b.H+eps && d <= b.D+eps
}

// Overlaps reports whether the interiors of two boxes intersect. Boxes that
// merely touch within eps do not overlap.
func (b Box) Overlaps(o Box, eps float64) bool {
	return b.X < o.X+o.W-eps && b.X+b.W > o.X+eps &&
		b.Y < o.Y+o.H-eps && b.Y+b.H > o.Y+eps &&
		b.Z < o.Z+o.D-eps && b.Z+b.D > o.Z+eps
}

// ContainsBox reports whether b fully contains o, allowing eps slack.
func (b Box) ContainsBox(o Box, eps float64) bool {
	return b.X <= o.X+eps && b.Y <= o.Y+eps && b.Z <= o.Z+eps &&
		b.X+b.W >= o.X+o.W-eps &&
		b.Y+b.H >= o.Y+o.H-eps &&
		b.Z+b.D >= o.Z+o.D-eps
}

// Extents is an oriented item size: E[0] goes on the W axis, E[1] on the
// H axis, E[2] on the D axis.
type Extents [3]float64

// Orientations returns the axis-aligned orientations of an item with
// dimensions (w, d, h), deduplicated when two dimensions are equal. The
// order is fixed so callers iterating the slice get a stable rotation index.
func Orientations(w, d, h float64) []Extents {
	all := []Extents{
		{w, h, d},
		{w, d, h},
		{h, w, d},
		{h, d, w},
		{d, w, h},
		{d, h, w},
	}
	seen := make(map[Extents]bool, len(all))
	out := all[:0]
	for _, e := range all {
		if !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	return out
}

// IsPermutationOf reports whether the box's side lengths are a permutation
// of (w, d, h) within eps.
func (b Box) IsPermutationOf(w, d, h, eps float64) bool {
	for _, e := range Orientations(w, d, h) {
		if approxEq(b.W, e[0], eps) && approxEq(b.H, e[1], eps) && approxEq(b.D, e[2], eps) {
			return true
		}
	}
	return false
}

func approxEq(a, b, eps float64) bool {
	d := a - b
	return d <= eps && d >= -eps
}
