// Package engine implements the spatial core: the free-space index, the
// per-container packer, the batch placement planner and the retrieval
// obstruction analyzer. Everything here is pure compute over in-memory
// structures; persistence and transport live elsewhere.
package engine

import "github.com/orbitlogix/stowage/internal/model"

// freeSpace tracks the empty volume of one container as a set of possibly
// overlapping free cuboids. The union of their interiors equals the empty
// volume as long as every insert goes through split, but individual cuboids
// over-approximate: an insert only splits the chosen cuboid, never the
// others. The packer compensates by validating each candidate box against
// the committed boxes before accepting it.
type freeSpace struct {
	cuboids []model.Box
	eps     float64
}

func newFreeSpace(c model.Container) *freeSpace {
	return &freeSpace{
		cuboids: []model.Box{c.Interior()},
		eps:     c.Eps(),
	}
}

// split commits an occupying box with extents ext placed at the origin
// corner of the free cuboid at index idx. The chosen cuboid is replaced by
// up to three guillotine residuals along W, H and D; residuals with a
// non-positive side are discarded, and cuboids fully contained in another
// are pruned.
func (fs *freeSpace) split(idx int, ext model.Extents) {
	f := fs.cuboids[idx]
	a, b, c := ext[0], ext[1], ext[2]

	fs.cuboids = append(fs.cuboids[:idx], fs.cuboids[idx+1:]...)

	if f.W-a > fs.eps {
		fs.cuboids = append(fs.cuboids, model.Box{
			X: f.X + a, Y: f.Y, Z: f.Z,
			W: f.W - a, H: b, D: c,
		})
	}
	if f.H-b > fs.eps {
		fs.cuboids = append(fs.cuboids, model.Box{
			X: f.X, Y: f.Y + b, Z: f.Z,
			W: f.W, H: f.H - b, D: c,
		})
	}
	if f.D-c > fs.eps {
		fs.cuboids = append(fs.cuboids, model.Box{
			X: f.X, Y: f.Y, Z: f.Z + c,
			W: f.W, H: f.H, D: f.D - c,
		})
	}

	fs.cuboids = pruneContained(fs.cuboids, fs.eps)
}

// exclude carves an already-occupied box out of every free cuboid it
// intersects. Used to seed a container that is not empty: each intersected
// cuboid is replaced by up to six axis-aligned slabs around the exclusion.
func (fs *freeSpace) exclude(b model.Box) {
	var next []model.Box
	for _, f := range fs.cuboids {
		if !f.Overlaps(b, fs.eps) {
			next = append(next, f)
			continue
		}
		next = append(next, subtractBox(f, b, fs.eps)...)
	}
	fs.cuboids = pruneContained(next, fs.eps)
}

// subtractBox returns the parts of f not covered by sub, as up to six
// maximal slabs (two per axis).
func subtractBox(f, sub model.Box, eps float64) []model.Box {
	var out []model.Box

	fEnd := f.End()
	sEnd := sub.End()

	// Left and right of sub, full height and depth of f.
	if sub.X-f.X > eps {
		out = append(out, model.Box{X: f.X, Y: f.Y, Z: f.Z, W: sub.X - f.X, H: f.H, D: f.D})
	}
	if fEnd.X-sEnd.X > eps {
		out = append(out, model.Box{X: sEnd.X, Y: f.Y, Z: f.Z, W: fEnd.X - sEnd.X, H: f.H, D: f.D})
	}
	// Below and above sub, full width and depth of f.
	if sub.Y-f.Y > eps {
		out = append(out, model.Box{X: f.X, Y: f.Y, Z: f.Z, W: f.W, H: sub.Y - f.Y, D: f.D})
	}
	if fEnd.Y-sEnd.Y > eps {
		out = append(out, model.Box{X: f.X, Y: sEnd.Y, Z: f.Z, W: f.W, H: fEnd.Y - sEnd.Y, D: f.D})
	}
	// In front of and behind sub, full width and height of f.
	if sub.Z-f.Z > eps {
		out = append(out, model.Box{X: f.X, Y: f.Y, Z: f.Z, W: f.W, H: f.H, D: sub.Z - f.Z})
	}
	if fEnd.Z-sEnd.Z > eps {
		out = append(out, model.Box{X: f.X, Y: f.Y, Z: sEnd.Z, W: f.W, H: f.H, D: fEnd.Z - sEnd.Z})
	}

	return out
}

// pruneContained removes any cuboid fully contained in another.
func pruneContained(boxes []model.Box, eps float64) []model.Box {
	if len(boxes) <= 1 {
		return boxes
	}
	kept := make([]model.Box, 0, len(boxes))
	for i, a := range boxes {
		contained := false
		for j, b := range boxes {
			if i == j {
				continue
			}
			if b.ContainsBox(a, eps) {
				// Of two identical cuboids keep the first.
				if a.ContainsBox(b, eps) && i < j {
					continue
				}
				contained = true
				break
			}
		}
		if !contained {
			kept = append(kept, a)
		}
	}
	return kept
}
