package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitlogix/stowage/internal/model"
)

func testContainers() []model.Container {
	return []model.Container{
		{ContainerID: "CA", Zone: "A", Width: 100, Depth: 100, Height: 100},
		{ContainerID: "CB", Zone: "B", Width: 100, Depth: 100, Height: 100},
	}
}

func TestPlan_PrefersMatchingZone(t *testing.T) {
	it := cube("I1", 50, 50)
	it.PreferredZone = "B"

	result := Plan([]model.Item{it}, testContainers(), nil)

	require.Len(t, result.Placements, 1)
	assert.Equal(t, "CB", result.Placements[0].ContainerID)
	assert.Empty(t, result.Unplaced)
}

func TestPlan_FallsBackToOtherZones(t *testing.T) {
	// Zone B's container is too small; the item spills into zone A.
	containers := []model.Container{
		{ContainerID: "CA", Zone: "A", Width: 100, Depth: 100, Height: 100},
		{ContainerID: "CB", Zone: "B", Width: 10, Depth: 10, Height: 10},
	}
	it := cube("I1", 50, 50)
	it.PreferredZone = "B"

	result := Plan([]model.Item{it}, containers, nil)

	require.Len(t, result.Placements, 1)
	assert.Equal(t, "CA", result.Placements[0].ContainerID)
}

func TestPlan_HighPriorityPlacedFirst(t *testing.T) {
	low := cube("low", 40, 10)
	low.PreferredZone = "A"
	high := cube("high", 40, 90)
	high.PreferredZone = "A"

	// Input order is low first; the planner must still give the shallow
	// shelf to the priority-90 item.
	result := Plan([]model.Item{low, high}, testContainers(), nil)
	require.Len(t, result.Placements, 2)

	byID := map[string]model.Box{}
	for _, p := range result.Placements {
		byID[p.ItemID] = p.Box
	}
	assert.LessOrEqual(t, byID["high"].Z, byID["low"].Z)
	assert.Equal(t, 0.0, byID["high"].Z)
}

func TestPlan_EqualPrioritySmallerVolumeFirst(t *testing.T) {
	big := cube("big", 60, 50)
	small := cube("small", 20, 50)

	result := Plan([]model.Item{big, small}, testContainers(), nil)
	require.Len(t, result.Placements, 2)

	// Smaller volume goes first and so lands at the origin.
	assert.Equal(t, "small", result.Placements[0].ItemID)
	assert.Equal(t, model.Box{X: 0, Y: 0, Z: 0, W: 20, H: 20, D: 20}, result.Placements[0].Box)
}

func TestPlan_UnplaceableReported(t *testing.T) {
	huge := cube("huge", 500, 50)

	result := Plan([]model.Item{huge, cube("ok", 50, 50)}, testContainers(), nil)

	require.Len(t, result.Unplaced, 1)
	assert.Equal(t, "huge", result.Unplaced[0].ItemID)
	assert.Len(t, result.Placements, 1)
}

func TestPlan_Deterministic(t *testing.T) {
	items := []model.Item{
		cube("a", 30, 10), cube("b", 30, 10), cube("c", 40, 70),
		cube("d", 25, 70), cube("e", 50, 40),
	}

	first := Plan(items, testContainers(), nil)
	for i := 0; i < 5; i++ {
		again := Plan(items, testContainers(), nil)
		assert.Equal(t, first, again, "same inputs must produce the same plan")
	}
}

func TestPlan_SpillsIntoSecondContainer(t *testing.T) {
	containers := []model.Container{
		{ContainerID: "C1", Zone: "A", Width: 50, Depth: 50, Height: 50},
		{ContainerID: "C2", Zone: "A", Width: 50, Depth: 50, Height: 50},
	}
	items := []model.Item{cube("a", 50, 10), cube("b", 50, 10)}

	result := Plan(items, containers, nil)
	require.Len(t, result.Placements, 2)
	assert.Equal(t, "C1", result.Placements[0].ContainerID)
	assert.Equal(t, "C2", result.Placements[1].ContainerID)
}

func TestPlan_OccupancyPreventsDoubleBooking(t *testing.T) {
	containers := []model.Container{
		{ContainerID: "C1", Zone: "A", Width: 50, Depth: 50, Height: 50},
	}
	occ := Occupancy{"C1": {{X: 0, Y: 0, Z: 0, W: 50, H: 50, D: 50}}}

	result := Plan([]model.Item{cube("a", 50, 10)}, containers, occ)
	assert.Empty(t, result.Placements)
	require.Len(t, result.Unplaced, 1)
}
