package engine

import (
	"sort"

	"github.com/orbitlogix/stowage/internal/model"
)

// Placement is one planned item placement.
type Placement struct {
	ItemID      string    `json:"itemId"`
	ContainerID string    `json:"containerId"`
	Box         model.Box `json:"-"`
}

// PlanResult is the outcome of planning a batch. Unplaced items are returned
// as rearrangement candidates; the planner never evicts already-placed cargo
// to make room.
type PlanResult struct {
	Placements []Placement
	Unplaced   []model.Item
}

// Occupancy maps container id to the boxes already committed in it, so that
// a plan over a partially full module does not double-book space.
type Occupancy map[string][]model.Box

// Plan places a batch of items across the given containers.
//
// Items are processed in (priority descending, volume ascending) order:
// high-priority cargo claims the shallow shelves first, and among equals the
// small items go first to limit fragmentation. Each item tries the
// containers matching its preferred zone in input order, then the rest in
// input order, and takes the first container whose packer accepts it.
//
// Items that already carry a placement are the caller's concern: filter them
// out before calling Plan.
func Plan(items []model.Item, containers []model.Container, occ Occupancy) PlanResult {
	ordered := make([]model.Item, len(items))
	copy(ordered, items)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority > ordered[j].Priority
		}
		return ordered[i].Volume() < ordered[j].Volume()
	})

	packers := make(map[string]*Packer, len(containers))
	for _, c := range containers {
		if boxes := occ[c.ContainerID]; len(boxes) > 0 {
			packers[c.ContainerID] = NewPackerWithOccupancy(c, boxes)
		} else {
			packers[c.ContainerID] = NewPacker(c)
		}
	}

	var result PlanResult
	for _, item := range ordered {
		placed := false
		for _, c := range preferenceOrder(item.PreferredZone, containers) {
			box, ok := packers[c.ContainerID].Insert(item)
			if !ok {
				continue
			}
			result.Placements = append(result.Placements, Placement{
				ItemID:      item.ItemID,
				ContainerID: c.ContainerID,
				Box:         box,
			})
			placed = true
			break
		}
		if !placed {
			result.Unplaced = append(result.Unplaced, item)
		}
	}
	return result
}

// preferenceOrder lists the containers whose zone matches first, keeping the
// input order within each group.
func preferenceOrder(zone string, containers []model.Container) []model.Container {
	ordered := make([]model.Container, 0, len(containers))
	for _, c := range containers {
		if c.Zone == zone {
			ordered = append(ordered, c)
		}
	}
	for _, c := range containers {
		if c.Zone != zone {
			ordered = append(ordered, c)
		}
	}
	return ordered
}
