package engine

import (
	"sort"

	"github.com/orbitlogix/stowage/internal/model"
)

// Score weights for candidate free cuboids. Depth dominates so that
// high-priority cargo lands near the open face and needs fewer moves to
// retrieve; the priority term lets important items claim the shallow shelves
// even when a slightly tighter spot exists deeper in.
const (
	scoreDepth    = 0.5
	scoreAcross   = 0.3
	scoreUp       = 0.2
	scorePriority = 0.1
)

// Packer places items into a single container. It keeps the free-space
// index and the set of committed boxes; because the free set
// over-approximates, every candidate is validated against the committed
// boxes before it is accepted.
type Packer struct {
	container model.Container
	free      *freeSpace
	placed    []model.Box
	eps       float64
}

// NewPacker returns a packer for an empty container.
func NewPacker(c model.Container) *Packer {
	return &Packer{
		container: c,
		free:      newFreeSpace(c),
		eps:       c.Eps(),
	}
}

// NewPackerWithOccupancy returns a packer for a container that already holds
// the given boxes. The free space is carved around them.
func NewPackerWithOccupancy(c model.Container, occupied []model.Box) *Packer {
	p := NewPacker(c)
	for _, b := range occupied {
		p.free.exclude(b)
		p.placed = append(p.placed, b)
	}
	return p
}

// candidate pairs a free cuboid with an orientation that fits it.
type candidate struct {
	box    model.Box // oriented item box at the cuboid's origin
	free   model.Box
	idx    int // index into the free set
	rot    int // rotation index, for the final tie-break
	orient model.Extents
	score  float64
}

// Insert places the item and returns its committed box, or ok=false when no
// orientation fits anywhere without overlapping a committed box.
func (p *Packer) Insert(item model.Item) (model.Box, bool) {
	orients := model.Orientations(item.Width, item.Depth, item.Height)

	var cands []candidate
	for i, f := range p.free.cuboids {
		for r, o := range orients {
			if !f.Fits(o[0], o[1], o[2], p.eps) {
				continue
			}
			cands = append(cands, candidate{
				box:    model.Box{X: f.X, Y: f.Y, Z: f.Z, W: o[0], H: o[1], D: o[2]},
				free:   f,
				idx:    i,
				rot:    r,
				orient: o,
				score:  p.score(f, item.Priority),
			})
		}
	}

	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.score != b.score {
			return a.score < b.score
		}
		if a.free.Z != b.free.Z {
			return a.free.Z < b.free.Z
		}
		if a.free.Y != b.free.Y {
			return a.free.Y < b.free.Y
		}
		if a.free.X != b.free.X {
			return a.free.X < b.free.X
		}
		return a.rot < b.rot
	})

	for _, c := range cands {
		if p.overlapsPlaced(c.box) {
			// The free set over-approximates; this spot is already taken.
			continue
		}
		p.free.split(c.idx, c.orient)
		p.placed = append(p.placed, c.box)
		return c.box, true
	}
	return model.Box{}, false
}

func (p *Packer) score(f model.Box, priority int) float64 {
	return scoreDepth*f.Z + scoreAcross*f.X + scoreUp*f.Y - scorePriority*float64(priority)
}

func (p *Packer) overlapsPlaced(b model.Box) bool {
	for _, o := range p.placed {
		if b.Overlaps(o, p.eps) {
			return true
		}
	}
	return false
}

// Placed returns the boxes committed so far, in commit order.
func (p *Packer) Placed() []model.Box {
	out := make([]model.Box, len(p.placed))
	copy(out, p.placed)
	return out
}
