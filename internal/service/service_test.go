package service

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitlogix/stowage/internal/audit"
	"github.com/orbitlogix/stowage/internal/model"
	"github.com/orbitlogix/stowage/internal/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return New(store.OpenMemory(), audit.OpenMemory(), nil)
}

func testContainer(id, zone string) model.Container {
	return model.Container{ContainerID: id, Zone: zone, Width: 100, Depth: 100, Height: 100}
}

func testItem(id string, priority int) model.Item {
	return model.Item{
		ItemID: id, Name: id,
		Width: 50, Depth: 50, Height: 50,
		Mass: 10, Priority: priority, PreferredZone: "A",
	}
}

func TestPlanPlacement_SinglePerfectFit(t *testing.T) {
	svc := newTestService(t)

	result, err := svc.PlanPlacement(
		[]model.Item{testItem("I1", 50)},
		[]model.Container{testContainer("C1", "A")},
		"tester")
	require.NoError(t, err)

	require.Len(t, result.Placements, 1)
	p := result.Placements[0]
	assert.Equal(t, "C1", p.ContainerID)
	assert.Equal(t, model.Coord{Width: 0, Depth: 0, Height: 0}, p.Position.Start)
	assert.Equal(t, model.Coord{Width: 50, Depth: 50, Height: 50}, p.Position.End)
	assert.Empty(t, result.Rearrangements)

	// The placement is committed to the store.
	it, err := svc.Store().Item("I1")
	require.NoError(t, err)
	assert.True(t, it.Placed())
}

func TestPlanPlacement_AlreadyPlacedItemsSkipped(t *testing.T) {
	svc := newTestService(t)
	containers := []model.Container{testContainer("C1", "A")}

	_, err := svc.PlanPlacement([]model.Item{testItem("I1", 50)}, containers, "")
	require.NoError(t, err)
	before, err := svc.Store().Item("I1")
	require.NoError(t, err)

	// Planning the same batch again must not move the item.
	result, err := svc.PlanPlacement([]model.Item{testItem("I1", 50)}, containers, "")
	require.NoError(t, err)
	assert.Empty(t, result.Placements)

	after, err := svc.Store().Item("I1")
	require.NoError(t, err)
	assert.Equal(t, before.Position, after.Position)
}

func TestPlanPlacement_UnplacedReportedNotDropped(t *testing.T) {
	svc := newTestService(t)

	big := testItem("big", 50)
	big.Width, big.Depth, big.Height = 500, 500, 500

	result, err := svc.PlanPlacement(
		[]model.Item{big, testItem("ok", 50)},
		[]model.Container{testContainer("C1", "A")},
		"")
	require.NoError(t, err)

	assert.Len(t, result.Placements, 1)
	require.Len(t, result.Rearrangements, 1)
	assert.Equal(t, "big", result.Rearrangements[0].ItemID)

	// Unplaced items still register so a later plan can pick them up.
	_, err = svc.Store().Item("big")
	assert.NoError(t, err)
}

func TestPlanPlacement_ValidationErrors(t *testing.T) {
	svc := newTestService(t)

	bad := testItem("bad", 500)
	_, err := svc.PlanPlacement([]model.Item{bad}, []model.Container{testContainer("C1", "A")}, "")
	assert.ErrorIs(t, err, ErrInputInvalid)

	noDims := testContainer("C2", "A")
	noDims.Width = 0
	_, err = svc.PlanPlacement(nil, []model.Container{noDims}, "")
	assert.ErrorIs(t, err, ErrInputInvalid)
}

func TestSearch_ByIDAndName(t *testing.T) {
	svc := newTestService(t)
	it := testItem("I1", 50)
	it.Name = "Water Filter"
	_, err := svc.PlanPlacement([]model.Item{it}, []model.Container{testContainer("C1", "A")}, "")
	require.NoError(t, err)

	byID, err := svc.Search("I1", "")
	require.NoError(t, err)
	require.True(t, byID.Found)
	assert.Equal(t, "A", byID.Zone)

	byName, err := svc.Search("", "water")
	require.NoError(t, err)
	assert.True(t, byName.Found)

	missing, err := svc.Search("nope", "")
	require.NoError(t, err)
	assert.False(t, missing.Found)

	_, err = svc.Search("", "")
	assert.ErrorIs(t, err, ErrInputInvalid)
}

func TestSearch_ReturnsRetrievalSteps(t *testing.T) {
	svc := newTestService(t)
	c := testContainer("C1", "A")

	// Occupy the whole face at depth 0, then place the target behind it.
	front := model.Item{ItemID: "front", Name: "front", Width: 100, Depth: 50, Height: 100, Mass: 1, Priority: 90, PreferredZone: "A"}
	target := model.Item{ItemID: "deep", Name: "deep", Width: 50, Depth: 50, Height: 50, Mass: 1, Priority: 10, PreferredZone: "A"}
	_, err := svc.PlanPlacement([]model.Item{front, target}, []model.Container{c}, "")
	require.NoError(t, err)

	result, err := svc.Search("deep", "")
	require.NoError(t, err)
	require.True(t, result.Found)
	require.Len(t, result.RetrievalSteps, 1)
	assert.Equal(t, "front", result.RetrievalSteps[0].ItemID)
}

func TestRetrieve_DecrementsUsesAndFlagsDepletion(t *testing.T) {
	svc := newTestService(t)
	it := testItem("I1", 50)
	it.UsageLimit = model.IntPtr(2)
	it.RemainingUses = model.IntPtr(2)
	require.NoError(t, svc.Store().AddItem(it))

	got, err := svc.Retrieve("I1", "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, *got.RemainingUses)
	assert.False(t, got.IsWaste)

	got, err = svc.Retrieve("I1", "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, *got.RemainingUses)
	assert.True(t, got.IsWaste)
	assert.Equal(t, model.ReasonOutOfUses, got.WasteReason)

	// A third retrieval must not go negative.
	got, err = svc.Retrieve("I1", "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, *got.RemainingUses)

	_, err = svc.Retrieve("ghost", "alice")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRetrieve_WritesAuditEntry(t *testing.T) {
	al := audit.OpenMemory()
	svc := New(store.OpenMemory(), al, nil)
	require.NoError(t, svc.Store().AddItem(testItem("I1", 50)))

	_, err := svc.Retrieve("I1", "alice")
	require.NoError(t, err)

	entries := al.Filter(audit.Query{ActionType: audit.ActionRetrieval})
	require.Len(t, entries, 1)
	assert.Equal(t, "alice", entries[0].UserID)
	assert.Equal(t, "I1", entries[0].ItemID)
}

func TestManualPlace_ValidAndConflicts(t *testing.T) {
	svc := newTestService(t)
	require.NoError(t, svc.Store().UpsertContainer(testContainer("C1", "A")))
	require.NoError(t, svc.Store().AddItem(testItem("I1", 50)))
	require.NoError(t, svc.Store().AddItem(testItem("I2", 50)))

	pos := model.Position{
		Start: model.Coord{Width: 0, Depth: 0, Height: 0},
		End:   model.Coord{Width: 50, Depth: 50, Height: 50},
	}
	require.NoError(t, svc.ManualPlace("I1", "C1", pos, "alice"))

	// Overlapping a placed item is a conflict.
	err := svc.ManualPlace("I2", "C1", pos, "alice")
	assert.ErrorIs(t, err, ErrConflict)

	// Out of bounds is a conflict.
	outside := model.Position{
		Start: model.Coord{Width: 60, Depth: 60, Height: 60},
		End:   model.Coord{Width: 110, Depth: 110, Height: 110},
	}
	err = svc.ManualPlace("I2", "C1", outside, "alice")
	assert.ErrorIs(t, err, ErrConflict)

	// Extents that are no permutation of the item dims are invalid input.
	wrongShape := model.Position{
		Start: model.Coord{Width: 0, Depth: 0, Height: 60},
		End:   model.Coord{Width: 10, Depth: 50, Height: 100},
	}
	err = svc.ManualPlace("I2", "C1", wrongShape, "alice")
	assert.ErrorIs(t, err, ErrInputInvalid)

	err = svc.ManualPlace("ghost", "C1", pos, "alice")
	assert.ErrorIs(t, err, ErrNotFound)
	err = svc.ManualPlace("I2", "ghost", pos, "alice")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIdentifyWaste_ExpiryAgainstSimulationClock(t *testing.T) {
	svc := newTestService(t)
	require.NoError(t, svc.Store().SetCurrentDate(model.NewDate(2024, time.December, 31)))

	it := testItem("milk", 50)
	it.ExpiryDate = model.NewDate(2025, time.January, 1)
	require.NoError(t, svc.Store().AddItem(it))

	waste, err := svc.IdentifyWaste()
	require.NoError(t, err)
	assert.Empty(t, waste, "not expired yet on the store clock")

	_, err = svc.Simulate(2, model.Date{}, nil)
	require.NoError(t, err)

	waste, err = svc.IdentifyWaste()
	require.NoError(t, err)
	require.Len(t, waste, 1)
	assert.Equal(t, "milk", waste[0].ItemID)
	assert.Equal(t, model.ReasonExpired, waste[0].Reason)
}

func TestSimulate_TargetDate(t *testing.T) {
	svc := newTestService(t)
	require.NoError(t, svc.Store().SetCurrentDate(model.NewDate(2025, time.January, 1)))

	result, err := svc.Simulate(0, model.NewDate(2025, time.January, 5), nil)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-05", result.NewDate.String())
	assert.Equal(t, "2025-01-05", svc.Store().CurrentDate().String())

	_, err = svc.Simulate(0, model.NewDate(2024, time.June, 1), nil)
	assert.ErrorIs(t, err, ErrInputInvalid)

	_, err = svc.Simulate(0, model.Date{}, nil)
	assert.ErrorIs(t, err, ErrInputInvalid)
}

func TestPlanReturn_EndToEnd(t *testing.T) {
	svc := newTestService(t)
	require.NoError(t, svc.Store().SetCurrentDate(model.NewDate(2025, time.January, 2)))

	heavy := testItem("heavy", 50)
	heavy.Mass = 30
	heavy.ExpiryDate = model.NewDate(2025, time.January, 1)
	mid := testItem("mid", 50)
	mid.Mass = 20
	mid.ExpiryDate = model.NewDate(2025, time.January, 1)
	light := testItem("light", 50)
	light.Mass = 5
	light.ExpiryDate = model.NewDate(2025, time.January, 1)

	_, err := svc.PlanPlacement(
		[]model.Item{heavy, mid, light},
		[]model.Container{testContainer("C1", "A"), testContainer("C2", "A")},
		"")
	require.NoError(t, err)

	plan, err := svc.PlanReturn("undock", model.NewDate(2025, time.January, 3), 40)
	require.NoError(t, err)

	// Heaviest first: 30 in, 20 skipped, 5 fits.
	require.Len(t, plan.Manifest.ReturnItems, 2)
	assert.Equal(t, "heavy", plan.Manifest.ReturnItems[0].ItemID)
	assert.Equal(t, "light", plan.Manifest.ReturnItems[1].ItemID)
	assert.Equal(t, 35.0, plan.Manifest.TotalWeight)
	assert.Len(t, plan.Moves, 2)

	_, err = svc.PlanReturn("", model.Date{}, 40)
	assert.ErrorIs(t, err, ErrInputInvalid)
	_, err = svc.PlanReturn("undock", model.Date{}, 0)
	assert.ErrorIs(t, err, ErrInputInvalid)
}

func TestCompleteUndocking_RemovesWasteOnly(t *testing.T) {
	svc := newTestService(t)
	require.NoError(t, svc.Store().SetCurrentDate(model.NewDate(2025, time.January, 2)))

	gone := testItem("gone", 50)
	gone.ExpiryDate = model.NewDate(2025, time.January, 1)
	require.NoError(t, svc.Store().AddItem(gone))
	require.NoError(t, svc.Store().AddItem(testItem("keep", 50)))

	_, err := svc.IdentifyWaste()
	require.NoError(t, err)

	removed, err := svc.CompleteUndocking("undock", "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = svc.Store().Item("gone")
	assert.Error(t, err)
	_, err = svc.Store().Item("keep")
	assert.NoError(t, err)
}

func TestImportItemsAndContainers(t *testing.T) {
	svc := newTestService(t)

	containersCSV := "Container ID,Zone,Width(cm),Depth(cm),Height(height)\ncontA,A,100,85,200\n"
	count, errs := svc.ImportContainers(strings.NewReader(containersCSV), "alice")
	assert.Equal(t, 1, count)
	assert.Empty(t, errs)

	itemsCSV := `Item ID,Name,Width (cm),Depth (cm),Height (cm),Mass (kg),Priority (1-100),Expiry Date (ISO Format),Usage Limit,Preferred Zone
001,Food Packet,10,10,20,5,80,2025-05-20,30,A
001,Duplicate,10,10,20,5,80,,,A
`
	count, errs = svc.ImportItems(strings.NewReader(itemsCSV), "alice")
	assert.Equal(t, 1, count)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "duplicate")
}

func TestExportArrangement_OnlyPlacedItems(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.PlanPlacement(
		[]model.Item{testItem("I1", 50)},
		[]model.Container{testContainer("C1", "A")},
		"")
	require.NoError(t, err)
	require.NoError(t, svc.Store().AddItem(testItem("loose", 50)))

	var buf bytes.Buffer
	require.NoError(t, svc.ExportArrangement(&buf))

	out := buf.String()
	assert.Contains(t, out, "I1,C1,(0,0,0),(50,50,50)")
	assert.NotContains(t, out, "loose")
}
