// Package lifecycle applies time and usage to cargo items: expiry and
// depletion transitions to the waste state, the day-by-day simulation clock,
// and planning the weight-bounded waste return.
package lifecycle

import "github.com/orbitlogix/stowage/internal/model"

// ItemRef identifies an item in a daily usage list, by id or by name.
// When both are present the id wins; otherwise the first non-waste item
// matching the name is used.
type ItemRef struct {
	ItemID string `json:"itemId,omitempty"`
	Name   string `json:"name,omitempty"`
}

// Usage reports one item consumed during a simulated day.
type Usage struct {
	ItemID        string `json:"itemId"`
	Name          string `json:"name"`
	RemainingUses *int   `json:"remainingUses"`
}

// MarkExpired flags every non-waste item whose expiry falls on or before
// today. It returns the items flagged by this call.
func MarkExpired(items []*model.Item, today model.Date) []*model.Item {
	var flagged []*model.Item
	for _, it := range items {
		if it.IsWaste || !it.Expired(today) {
			continue
		}
		it.IsWaste = true
		it.WasteReason = model.ReasonExpired
		flagged = append(flagged, it)
	}
	return flagged
}

// MarkDepleted flags every non-waste item that tracks usage and has no uses
// left. It returns the items flagged by this call.
func MarkDepleted(items []*model.Item) []*model.Item {
	var flagged []*model.Item
	for _, it := range items {
		if it.IsWaste || !it.Depleted() {
			continue
		}
		it.IsWaste = true
		it.WasteReason = model.ReasonOutOfUses
		flagged = append(flagged, it)
	}
	return flagged
}

// ApplyUsage consumes one use per referenced item. Remaining uses never go
// below zero; an item that reaches zero is flagged as waste immediately.
// References that match nothing are skipped.
func ApplyUsage(items []*model.Item, refs []ItemRef) (used []Usage, depleted []*model.Item) {
	for _, ref := range refs {
		it := resolve(items, ref)
		if it == nil {
			continue
		}
		if it.RemainingUses != nil && *it.RemainingUses > 0 {
			*it.RemainingUses--
			if *it.RemainingUses == 0 && !it.IsWaste {
				it.IsWaste = true
				it.WasteReason = model.ReasonOutOfUses
				depleted = append(depleted, it)
			}
		}
		used = append(used, Usage{ItemID: it.ItemID, Name: it.Name, RemainingUses: it.RemainingUses})
	}
	return used, depleted
}

// resolve finds the usage target: by id first, else the first non-waste item
// with the exact name.
func resolve(items []*model.Item, ref ItemRef) *model.Item {
	if ref.ItemID != "" {
		for _, it := range items {
			if it.ItemID == ref.ItemID && !it.IsWaste {
				return it
			}
		}
		return nil
	}
	if ref.Name != "" {
		for _, it := range items {
			if it.Name == ref.Name && !it.IsWaste {
				return it
			}
		}
	}
	return nil
}

// SimulationResult reports what happened over a simulated span of days.
type SimulationResult struct {
	NewDate  model.Date
	Used     []Usage
	Expired  []*model.Item
	Depleted []*model.Item
}

// Simulate advances the clock from `from` by `days` whole days. The usage
// list is applied once per simulated day, then expiry is checked against the
// new day. Items the simulation flags stay flagged: waste is monotone.
func Simulate(items []*model.Item, from model.Date, days int, perDay []ItemRef) SimulationResult {
	result := SimulationResult{NewDate: from}
	for d := 0; d < days; d++ {
		result.NewDate = result.NewDate.AddDays(1)

		used, depleted := ApplyUsage(items, perDay)
		result.Used = append(result.Used, used...)
		result.Depleted = append(result.Depleted, depleted...)

		result.Expired = append(result.Expired, MarkExpired(items, result.NewDate)...)
	}
	return result
}
