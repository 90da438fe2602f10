package lifecycle

import (
	"sort"

	"github.com/orbitlogix/stowage/internal/engine"
	"github.com/orbitlogix/stowage/internal/model"
)

// ReturnItem is one waste item included in a return plan.
type ReturnItem struct {
	ItemID string `json:"itemId"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// MoveStep is one physical move into the undocking container, numbered in
// inclusion order.
type MoveStep struct {
	Step          int    `json:"step"`
	ItemID        string `json:"itemId"`
	ItemName      string `json:"itemName"`
	FromContainer string `json:"fromContainer"`
	ToContainer   string `json:"toContainer"`
}

// Manifest summarizes an undocking load.
type Manifest struct {
	UndockingContainerID string       `json:"undockingContainerId"`
	UndockingDate        model.Date   `json:"undockingDate"`
	ReturnItems          []ReturnItem `json:"returnItems"`
	TotalVolume          float64      `json:"totalVolume"`
	TotalWeight          float64      `json:"totalWeight"`
}

// ReturnPlan is the full output of return planning.
type ReturnPlan struct {
	Moves          []MoveStep             `json:"returnPlan"`
	RetrievalSteps []engine.RetrievalStep `json:"retrievalSteps"`
	Manifest       Manifest               `json:"returnManifest"`
}

// PlanReturn selects waste items for a weight-bounded return, heaviest
// first. An item that would push the running mass over maxWeight is skipped,
// but the walk continues: lighter items further down the list may still fit.
// This is deliberately not a greedy stop.
//
// byContainer must hold the current occupancy of each container (waste
// included) so retrieval steps for the included items can be derived.
func PlanReturn(
	items []model.Item,
	byContainer map[string][]model.Item,
	eps map[string]float64,
	undockingID string,
	date model.Date,
	maxWeight float64,
) ReturnPlan {
	waste := make([]model.Item, 0)
	for _, it := range items {
		if it.IsWaste {
			waste = append(waste, it)
		}
	}
	sort.SliceStable(waste, func(i, j int) bool {
		return waste[i].Mass > waste[j].Mass
	})

	plan := ReturnPlan{
		Manifest: Manifest{
			UndockingContainerID: undockingID,
			UndockingDate:        date,
		},
	}

	var running float64
	var volume float64
	for _, it := range waste {
		if running+it.Mass > maxWeight {
			continue
		}
		running += it.Mass
		volume += it.Volume()

		plan.Manifest.ReturnItems = append(plan.Manifest.ReturnItems, ReturnItem{
			ItemID: it.ItemID,
			Name:   it.Name,
			Reason: wasteReason(it),
		})

		if it.ContainerID != "" {
			plan.Moves = append(plan.Moves, MoveStep{
				Step:          len(plan.Moves) + 1,
				ItemID:        it.ItemID,
				ItemName:      it.Name,
				FromContainer: it.ContainerID,
				ToContainer:   undockingID,
			})
			plan.RetrievalSteps = append(plan.RetrievalSteps,
				engine.RetrievalSteps(it, byContainer[it.ContainerID], eps[it.ContainerID])...)
		}
	}

	plan.Manifest.TotalVolume = volume
	plan.Manifest.TotalWeight = running
	return plan
}

// wasteReason returns the recorded reason. For waste items flagged before
// reasons were recorded it falls back to the depletion reason when the item
// is depleted, and to the expiry reason otherwise.
func wasteReason(it model.Item) string {
	if it.WasteReason != "" {
		return it.WasteReason
	}
	if it.Depleted() {
		return model.ReasonOutOfUses
	}
	return model.ReasonExpired
}

// CollectWaste runs expiry and depletion checks against today and returns
// every waste item.
func CollectWaste(items []*model.Item, today model.Date) []*model.Item {
	MarkExpired(items, today)
	MarkDepleted(items)
	var waste []*model.Item
	for _, it := range items {
		if it.IsWaste {
			waste = append(waste, it)
		}
	}
	return waste
}
