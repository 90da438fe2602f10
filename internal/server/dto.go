package server

import (
	"github.com/orbitlogix/stowage/internal/engine"
	"github.com/orbitlogix/stowage/internal/importer"
	"github.com/orbitlogix/stowage/internal/lifecycle"
	"github.com/orbitlogix/stowage/internal/model"
	"github.com/orbitlogix/stowage/internal/service"
)

// Request bodies. Field names follow the wire contract of the upstream
// tooling (camelCase throughout).

type itemDTO struct {
	ItemID        string   `json:"itemId" validate:"required"`
	Name          string   `json:"name" validate:"required"`
	Width         float64  `json:"width" validate:"gt=0"`
	Depth         float64  `json:"depth" validate:"gt=0"`
	Height        float64  `json:"height" validate:"gt=0"`
	Mass          float64  `json:"mass" validate:"gt=0"`
	Priority      int      `json:"priority" validate:"min=1,max=100"`
	ExpiryDate    string   `json:"expiryDate,omitempty"`
	UsageLimit    *int     `json:"usageLimit,omitempty" validate:"omitempty,gt=0"`
	PreferredZone string   `json:"preferredZone"`
}

type containerDTO struct {
	ContainerID string  `json:"containerId" validate:"required"`
	Zone        string  `json:"zone" validate:"required"`
	Width       float64 `json:"width" validate:"gt=0"`
	Depth       float64 `json:"depth" validate:"gt=0"`
	Height      float64 `json:"height" validate:"gt=0"`
}

type placementRequest struct {
	Items      []itemDTO      `json:"items" validate:"dive"`
	Containers []containerDTO `json:"containers" validate:"dive"`
	UserID     string         `json:"userId"`
}

type placementResponse struct {
	Success        bool                       `json:"success"`
	Placements     []service.PlannedPlacement `json:"placements"`
	Rearrangements []model.Item               `json:"rearrangements"`
}

type searchResponse struct {
	Success        bool                   `json:"success"`
	Found          bool                   `json:"found"`
	Item           *searchItem            `json:"item,omitempty"`
	RetrievalSteps []engine.RetrievalStep `json:"retrievalSteps"`
}

type searchItem struct {
	ItemID      string          `json:"itemId"`
	Name        string          `json:"name"`
	ContainerID string          `json:"containerId,omitempty"`
	Zone        string          `json:"zone,omitempty"`
	Position    *model.Position `json:"position,omitempty"`
}

type retrieveRequest struct {
	ItemID    string `json:"itemId" validate:"required"`
	UserID    string `json:"userId"`
	Timestamp string `json:"timestamp"`
}

type placeRequest struct {
	ItemID      string         `json:"itemId" validate:"required"`
	UserID      string         `json:"userId"`
	Timestamp   string         `json:"timestamp"`
	ContainerID string         `json:"containerId" validate:"required"`
	Position    model.Position `json:"position"`
}

type wasteIdentifyResponse struct {
	Success    bool                `json:"success"`
	WasteItems []service.WasteItem `json:"wasteItems"`
}

type returnPlanRequest struct {
	UndockingContainerID string  `json:"undockingContainerId" validate:"required"`
	UndockingDate        string  `json:"undockingDate" validate:"required"`
	MaxWeight            float64 `json:"maxWeight" validate:"gt=0"`
}

type returnPlanResponse struct {
	Success        bool                   `json:"success"`
	ReturnPlan     []lifecycle.MoveStep   `json:"returnPlan"`
	RetrievalSteps []engine.RetrievalStep `json:"retrievalSteps"`
	ReturnManifest lifecycle.Manifest     `json:"returnManifest"`
}

type undockingRequest struct {
	UndockingContainerID string `json:"undockingContainerId" validate:"required"`
	UserID               string `json:"userId"`
	Timestamp            string `json:"timestamp"`
}

type undockingResponse struct {
	Success      bool `json:"success"`
	ItemsRemoved int  `json:"itemsRemoved"`
}

type simulateRequest struct {
	NumOfDays         *int                `json:"numOfDays,omitempty"`
	ToTimestamp       string              `json:"toTimestamp,omitempty"`
	ItemsToBeUsedPerDay []lifecycle.ItemRef `json:"itemsToBeUsedPerDay"`
}

type simulateChanges struct {
	ItemsUsed          []lifecycle.Usage `json:"itemsUsed"`
	ItemsExpired       []usedItemRef     `json:"itemsExpired"`
	ItemsDepletedToday []usedItemRef     `json:"itemsDepletedToday"`
}

type usedItemRef struct {
	ItemID string `json:"itemId"`
	Name   string `json:"name"`
}

type simulateResponse struct {
	Success bool            `json:"success"`
	NewDate string          `json:"newDate"`
	Changes simulateChanges `json:"changes"`
}

type importResponse struct {
	Success  bool                `json:"success"`
	Imported int                 `json:"imported"`
	Errors   []importer.RowError `json:"errors"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// toModel converts a request item to the model form, initializing remaining
// uses from the limit.
func (d itemDTO) toModel() (model.Item, error) {
	it := model.Item{
		ItemID:        d.ItemID,
		Name:          d.Name,
		Width:         d.Width,
		Depth:         d.Depth,
		Height:        d.Height,
		Mass:          d.Mass,
		Priority:      d.Priority,
		PreferredZone: d.PreferredZone,
	}
	if d.ExpiryDate != "" {
		exp, err := model.ParseDate(d.ExpiryDate)
		if err != nil {
			return model.Item{}, err
		}
		it.ExpiryDate = exp
	}
	if d.UsageLimit != nil {
		it.UsageLimit = model.IntPtr(*d.UsageLimit)
		it.RemainingUses = model.IntPtr(*d.UsageLimit)
	}
	return it, nil
}

func (d containerDTO) toModel() model.Container {
	return model.Container{
		ContainerID: d.ContainerID,
		Zone:        d.Zone,
		Width:       d.Width,
		Depth:       d.Depth,
		Height:      d.Height,
	}
}
