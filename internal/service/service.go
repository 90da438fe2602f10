// Package service coordinates the stowage operations: each method performs
// the store round-trip around one core engine or lifecycle call and records
// the action in the audit log. The HTTP layer and the CLI are thin callers
// of this package.
package service

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/orbitlogix/stowage/internal/audit"
	"github.com/orbitlogix/stowage/internal/engine"
	"github.com/orbitlogix/stowage/internal/export"
	"github.com/orbitlogix/stowage/internal/importer"
	"github.com/orbitlogix/stowage/internal/lifecycle"
	"github.com/orbitlogix/stowage/internal/model"
	"github.com/orbitlogix/stowage/internal/store"
)

// Error taxonomy. Handlers map these to status codes; batch operations
// accumulate per-item errors instead of returning them.
var (
	ErrInputInvalid = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// Service owns the store and the audit log.
type Service struct {
	store *store.Store
	audit *audit.Log
	log   *zap.Logger
}

// New wires a service. A nil logger disables logging.
func New(st *store.Store, al *audit.Log, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, audit: al, log: logger}
}

// Store exposes the underlying store for read-only callers (export, CLI).
func (s *Service) Store() *store.Store { return s.store }

// PlacementResult is the outcome of planning a batch.
type PlacementResult struct {
	Placements []PlannedPlacement
	// Rearrangements lists the items that could not be placed. No
	// rearrangement moves are computed; eviction policy is deliberately
	// out of scope.
	Rearrangements []model.Item
}

// PlannedPlacement is one planned placement in external coordinates.
type PlannedPlacement struct {
	ItemID      string         `json:"itemId"`
	ContainerID string         `json:"containerId"`
	Position    model.Position `json:"position"`
}

// PlanPlacement registers the given containers and items, plans placements
// for every item that does not already have one, and commits the results.
// Items already placed are left alone. Items that do not fit surface in the
// Rearrangements list and never abort the batch. An invalid item or
// container rejects the whole batch with ErrInputInvalid before anything is
// stored.
func (s *Service) PlanPlacement(items []model.Item, containers []model.Container, userID string) (PlacementResult, error) {
	for _, c := range containers {
		if err := validateContainer(c); err != nil {
			return PlacementResult{}, err
		}
	}
	for _, it := range items {
		if err := validateItem(it); err != nil {
			return PlacementResult{}, err
		}
	}

	for _, c := range containers {
		if err := s.store.UpsertContainer(c); err != nil {
			return PlacementResult{}, err
		}
	}

	// Register unknown items; keep known ones as stored (their placement,
	// usage state and waste flag are authoritative there).
	var toPlace []model.Item
	for _, it := range items {
		stored, err := s.store.Item(it.ItemID)
		if err != nil {
			if it.UsageLimit != nil && it.RemainingUses == nil {
				it.RemainingUses = model.IntPtr(*it.UsageLimit)
			}
			if err := s.store.AddItem(it); err != nil {
				return PlacementResult{}, err
			}
			toPlace = append(toPlace, it)
			continue
		}
		if !stored.Placed() && !stored.IsWaste {
			toPlace = append(toPlace, stored)
		}
	}

	// Seed each container's free space with what is already inside it, so a
	// plan over a partially full module cannot double-book space.
	occ := make(engine.Occupancy)
	for _, c := range containers {
		for _, it := range s.store.ItemsInContainer(c.ContainerID) {
			occ[c.ContainerID] = append(occ[c.ContainerID], it.Position.Box())
		}
	}

	plan := engine.Plan(toPlace, containers, occ)

	result := PlacementResult{Rearrangements: plan.Unplaced}
	for _, p := range plan.Placements {
		it, err := s.store.Item(p.ItemID)
		if err != nil {
			return result, err
		}
		pos := model.PositionFromBox(p.Box)
		it.ContainerID = p.ContainerID
		it.Position = &pos
		if err := s.store.UpdateItem(it); err != nil {
			return result, err
		}
		result.Placements = append(result.Placements, PlannedPlacement{
			ItemID:      p.ItemID,
			ContainerID: p.ContainerID,
			Position:    pos,
		})
		s.auditLog(userID, audit.ActionPlacement, p.ItemID,
			fmt.Sprintf("Placed in container %s", p.ContainerID))
	}

	s.log.Info("placement planned",
		zap.Int("placed", len(result.Placements)),
		zap.Int("unplaced", len(result.Rearrangements)))
	return result, nil
}

// SearchResult is a found item plus its retrieval plan.
type SearchResult struct {
	Found          bool
	Item           model.Item
	Zone           string
	RetrievalSteps []engine.RetrievalStep
}

// Search looks an item up by id, or by name when the id is empty, and
// derives the retrieval steps for its current placement. Search is
// read-only; it never consumes a use.
func (s *Service) Search(itemID, itemName string) (SearchResult, error) {
	if itemID == "" && itemName == "" {
		return SearchResult{}, fmt.Errorf("%w: itemId or itemName required", ErrInputInvalid)
	}

	var it model.Item
	var err error
	if itemID != "" {
		it, err = s.store.Item(itemID)
	} else {
		it, err = s.store.ItemByName(itemName)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return SearchResult{Found: false}, nil
		}
		return SearchResult{}, err
	}

	result := SearchResult{Found: true, Item: it}
	if it.Placed() {
		c, err := s.store.Container(it.ContainerID)
		if err == nil {
			result.Zone = c.Zone
			result.RetrievalSteps = engine.RetrievalSteps(it, s.store.ItemsInContainer(it.ContainerID), c.Eps())
		} else {
			// Placement references an unknown container: degraded data.
			result.RetrievalSteps = engine.RetrievalStepsByDepth(it, s.store.ItemsInContainer(it.ContainerID), 0)
		}
	}
	return result, nil
}

// Retrieve records the physical removal of an item: one use is consumed if
// the item tracks usage, and depletion flags it as waste.
func (s *Service) Retrieve(itemID, userID string) (model.Item, error) {
	it, err := s.store.Item(itemID)
	if err != nil {
		return model.Item{}, fmt.Errorf("%w: item %s", ErrNotFound, itemID)
	}

	if it.RemainingUses != nil && *it.RemainingUses > 0 {
		it.RemainingUses = model.IntPtr(*it.RemainingUses - 1)
		if *it.RemainingUses == 0 {
			it.IsWaste = true
			it.WasteReason = model.ReasonOutOfUses
		}
	}
	if err := s.store.UpdateItem(it); err != nil {
		return model.Item{}, err
	}

	s.auditLog(userID, audit.ActionRetrieval, itemID,
		fmt.Sprintf("Retrieved from container %s", it.ContainerID))
	return it, nil
}

// ManualPlace sets an item's placement to externally supplied coordinates.
// The coordinates are trusted to come from a human who physically moved the
// item, but they still must describe a legal state: inside the container,
// extents matching the item, no overlap with other cargo.
func (s *Service) ManualPlace(itemID, containerID string, pos model.Position, userID string) error {
	it, err := s.store.Item(itemID)
	if err != nil {
		return fmt.Errorf("%w: item %s", ErrNotFound, itemID)
	}
	c, err := s.store.Container(containerID)
	if err != nil {
		return fmt.Errorf("%w: container %s", ErrNotFound, containerID)
	}

	b := pos.Box()
	eps := c.Eps()
	if b.W <= eps || b.H <= eps || b.D <= eps {
		return fmt.Errorf("%w: end coordinates must exceed start on every axis", ErrInputInvalid)
	}
	if !b.IsPermutationOf(it.Width, it.Depth, it.Height, eps) {
		return fmt.Errorf("%w: box extents do not match item dimensions", ErrInputInvalid)
	}
	if !c.Interior().ContainsBox(b, eps) {
		return fmt.Errorf("%w: placement exceeds container bounds", ErrConflict)
	}
	for _, other := range s.store.ItemsInContainer(containerID) {
		if other.ItemID == itemID {
			continue
		}
		if other.Position.Box().Overlaps(b, eps) {
			return fmt.Errorf("%w: overlaps item %s", ErrConflict, other.ItemID)
		}
	}

	it.ContainerID = containerID
	it.Position = &pos
	if err := s.store.UpdateItem(it); err != nil {
		return err
	}

	s.auditLog(userID, audit.ActionPlacement, itemID,
		fmt.Sprintf("Manually placed in container %s", containerID))
	return nil
}

// WasteItem is one identified waste item with its location.
type WasteItem struct {
	ItemID      string          `json:"itemId"`
	Name        string          `json:"name"`
	Reason      string          `json:"reason"`
	ContainerID string          `json:"containerId,omitempty"`
	Position    *model.Position `json:"position,omitempty"`
}

// IdentifyWaste runs expiry and depletion checks against the simulation
// clock and returns every waste item.
func (s *Service) IdentifyWaste() ([]WasteItem, error) {
	today := s.store.CurrentDate()
	err := s.store.Mutate(func(items []*model.Item) {
		lifecycle.MarkExpired(items, today)
		lifecycle.MarkDepleted(items)
	})
	if err != nil {
		return nil, err
	}

	var out []WasteItem
	for _, it := range s.store.Items() {
		if !it.IsWaste {
			continue
		}
		out = append(out, WasteItem{
			ItemID:      it.ItemID,
			Name:        it.Name,
			Reason:      it.WasteReason,
			ContainerID: it.ContainerID,
			Position:    it.Position,
		})
	}
	return out, nil
}

// PlanReturn builds a weight-bounded return plan for the given undocking
// container and date.
func (s *Service) PlanReturn(undockingID string, date model.Date, maxWeight float64) (lifecycle.ReturnPlan, error) {
	if undockingID == "" {
		return lifecycle.ReturnPlan{}, fmt.Errorf("%w: undockingContainerId required", ErrInputInvalid)
	}
	if maxWeight <= 0 {
		return lifecycle.ReturnPlan{}, fmt.Errorf("%w: maxWeight must be positive", ErrInputInvalid)
	}

	// Refresh waste flags first so the plan sees everything eligible.
	if _, err := s.IdentifyWaste(); err != nil {
		return lifecycle.ReturnPlan{}, err
	}

	items := s.store.Items()
	byContainer := make(map[string][]model.Item)
	eps := make(map[string]float64)
	for _, c := range s.store.Containers() {
		byContainer[c.ContainerID] = s.store.ItemsInContainer(c.ContainerID)
		eps[c.ContainerID] = c.Eps()
	}

	return lifecycle.PlanReturn(items, byContainer, eps, undockingID, date, maxWeight), nil
}

// CompleteUndocking permanently removes all waste items. This is the only
// operation that deletes items.
func (s *Service) CompleteUndocking(undockingID, userID string) (int, error) {
	removed, err := s.store.RemoveWaste()
	if err != nil {
		return 0, err
	}
	s.auditLog(userID, audit.ActionUndocking, "",
		fmt.Sprintf("Completed undocking of container %s, removed %d items", undockingID, removed))
	s.log.Info("undocking complete", zap.String("container", undockingID), zap.Int("removed", removed))
	return removed, nil
}

// Simulate advances the simulation clock by days when days > 0; the target
// is then ignored. Otherwise target must be a date after the current one.
// The usage list is applied once per simulated day.
func (s *Service) Simulate(days int, target model.Date, perDay []lifecycle.ItemRef) (lifecycle.SimulationResult, error) {
	from := s.store.CurrentDate()
	if days <= 0 {
		if target.IsZero() {
			return lifecycle.SimulationResult{}, fmt.Errorf("%w: numOfDays or toTimestamp required", ErrInputInvalid)
		}
		for d := from; d.Before(target); d = d.AddDays(1) {
			days++
		}
		if days == 0 {
			return lifecycle.SimulationResult{}, fmt.Errorf("%w: target date is not in the future", ErrInputInvalid)
		}
	}

	var result lifecycle.SimulationResult
	err := s.store.Mutate(func(items []*model.Item) {
		result = lifecycle.Simulate(items, from, days, perDay)
	})
	if err != nil {
		return lifecycle.SimulationResult{}, err
	}
	if err := s.store.SetCurrentDate(result.NewDate); err != nil {
		return lifecycle.SimulationResult{}, err
	}

	s.auditLog("", audit.ActionSimulation, "",
		fmt.Sprintf("Advanced %d days to %s", days, result.NewDate))
	return result, nil
}

// ImportItems parses and registers an item manifest. Rows that fail to
// parse are reported with their row number; ids that already exist are
// reported with Row 0. The rest import.
func (s *Service) ImportItems(r io.Reader, userID string) (int, []importer.RowError) {
	result := importer.ImportItems(r)
	count := 0
	for _, it := range result.Items {
		if err := s.store.AddItem(it); err != nil {
			result.Errors = append(result.Errors, importer.RowError{
				Row:     0,
				Message: err.Error(),
			})
			continue
		}
		count++
	}
	s.auditLog(userID, audit.ActionImport, "",
		fmt.Sprintf("Imported %d items (%d errors)", count, len(result.Errors)))
	return count, result.Errors
}

// ImportContainers parses and registers a container manifest. Existing
// container ids are replaced.
func (s *Service) ImportContainers(r io.Reader, userID string) (int, []importer.RowError) {
	result := importer.ImportContainers(r)
	count := 0
	for _, c := range result.Containers {
		if err := s.store.UpsertContainer(c); err != nil {
			result.Errors = append(result.Errors, importer.RowError{Row: 0, Message: err.Error()})
			continue
		}
		count++
	}
	s.auditLog(userID, audit.ActionImport, "",
		fmt.Sprintf("Imported %d containers (%d errors)", count, len(result.Errors)))
	return count, result.Errors
}

// ExportArrangement writes the current arrangement as CSV.
func (s *Service) ExportArrangement(w io.Writer) error {
	return export.WriteArrangementCSV(w, s.store.Items())
}

// Logs returns audit entries matching the query, newest first.
func (s *Service) Logs(q audit.Query) []audit.Entry {
	if s.audit == nil {
		return nil
	}
	return s.audit.Filter(q)
}

func (s *Service) auditLog(userID, action, itemID, details string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Append(userID, action, itemID, details); err != nil {
		s.log.Warn("audit append failed", zap.Error(err))
	}
}

func validateContainer(c model.Container) error {
	if strings.TrimSpace(c.ContainerID) == "" {
		return fmt.Errorf("%w: containerId required", ErrInputInvalid)
	}
	if c.Width <= 0 || c.Depth <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: container %s dimensions must be positive", ErrInputInvalid, c.ContainerID)
	}
	return nil
}

func validateItem(it model.Item) error {
	if strings.TrimSpace(it.ItemID) == "" {
		return fmt.Errorf("%w: itemId required", ErrInputInvalid)
	}
	if it.Width <= 0 || it.Depth <= 0 || it.Height <= 0 {
		return fmt.Errorf("%w: item %s dimensions must be positive", ErrInputInvalid, it.ItemID)
	}
	if it.Mass <= 0 {
		return fmt.Errorf("%w: item %s mass must be positive", ErrInputInvalid, it.ItemID)
	}
	if it.Priority < 1 || it.Priority > 100 {
		return fmt.Errorf("%w: item %s priority outside 1-100", ErrInputInvalid, it.ItemID)
	}
	return nil
}
