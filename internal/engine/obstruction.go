package engine

import (
	"sort"

	"github.com/orbitlogix/stowage/internal/model"
)

// RetrievalStep is one move in a retrieval plan: take the named item out of
// the container, set it aside, and after the target is extracted put the
// moved items back in reverse order.
type RetrievalStep struct {
	Step     int    `json:"step"`
	Action   string `json:"action"`
	ItemID   string `json:"itemId"`
	ItemName string `json:"itemName"`
}

// StepActionRemove is the action on every step the analyzer emits; the
// restore pass is implied by replaying the steps in reverse.
const StepActionRemove = "remove"

// RetrievalSteps returns the items that must be moved aside to pull target
// straight out through the open face, closest to the face first, ties broken
// by lower then lefter start corner.
//
// An item blocks the target when it sits in front of it (smaller start
// depth) and its projection onto the face plane overlaps the target's
// projection. Waste items still physically block and are included.
func RetrievalSteps(target model.Item, inContainer []model.Item, eps float64) []RetrievalStep {
	if target.Position == nil {
		return nil
	}
	t := target.Position.Box()

	var blocking []model.Item
	for _, it := range inContainer {
		if it.ItemID == target.ItemID || it.Position == nil {
			continue
		}
		b := it.Position.Box()
		if b.Z >= t.Z-eps {
			continue
		}
		if b.X < t.X+t.W-eps && b.X+b.W > t.X+eps &&
			b.Y < t.Y+t.H-eps && b.Y+b.H > t.Y+eps {
			blocking = append(blocking, it)
		}
	}
	return toSteps(blocking)
}

// RetrievalStepsByDepth is the degraded form used when face-plane projection
// data cannot be trusted: every item in front of the target is reported as
// blocking. Prefer RetrievalSteps whenever coordinates are present.
func RetrievalStepsByDepth(target model.Item, inContainer []model.Item, eps float64) []RetrievalStep {
	if target.Position == nil {
		return nil
	}
	t := target.Position.Box()

	var blocking []model.Item
	for _, it := range inContainer {
		if it.ItemID == target.ItemID || it.Position == nil {
			continue
		}
		if it.Position.Box().Z < t.Z-eps {
			blocking = append(blocking, it)
		}
	}
	return toSteps(blocking)
}

// toSteps orders blocking items by ascending (d0, h0, w0) and numbers them.
func toSteps(blocking []model.Item) []RetrievalStep {
	sort.SliceStable(blocking, func(i, j int) bool {
		a, b := blocking[i].Position.Box(), blocking[j].Position.Box()
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})

	steps := make([]RetrievalStep, 0, len(blocking))
	for i, it := range blocking {
		steps = append(steps, RetrievalStep{
			Step:     i + 1,
			Action:   StepActionRemove,
			ItemID:   it.ItemID,
			ItemName: it.Name,
		})
	}
	return steps
}
