package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/orbitlogix/stowage/internal/audit"
	"github.com/orbitlogix/stowage/internal/engine"
	"github.com/orbitlogix/stowage/internal/lifecycle"
	"github.com/orbitlogix/stowage/internal/model"
	"github.com/orbitlogix/stowage/internal/service"
)

// maxImportSize caps uploaded CSV bodies at 16 MiB.
const maxImportSize = 16 << 20

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("response encode failed", zap.Error(err))
	}
}

// writeError maps the service error taxonomy onto status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInputInvalid):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	}
	s.writeJSON(w, status, errorResponse{Success: false, Error: err.Error()})
}

// decode parses and validates a JSON request body.
func (s *Server) decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", service.ErrInputInvalid, err)
	}
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", service.ErrInputInvalid, err)
	}
	return nil
}

func (s *Server) handlePlacement(w http.ResponseWriter, r *http.Request) {
	var req placementRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	items := make([]model.Item, 0, len(req.Items))
	for _, d := range req.Items {
		it, err := d.toModel()
		if err != nil {
			s.writeError(w, fmt.Errorf("%w: item %s: %v", service.ErrInputInvalid, d.ItemID, err))
			return
		}
		items = append(items, it)
	}
	containers := make([]model.Container, 0, len(req.Containers))
	for _, d := range req.Containers {
		containers = append(containers, d.toModel())
	}

	result, err := s.svc.PlanPlacement(items, containers, req.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if result.Rearrangements == nil {
		result.Rearrangements = []model.Item{}
	}
	if result.Placements == nil {
		result.Placements = []service.PlannedPlacement{}
	}
	s.writeJSON(w, http.StatusOK, placementResponse{
		Success:        true,
		Placements:     result.Placements,
		Rearrangements: result.Rearrangements,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	itemID := r.URL.Query().Get("itemId")
	itemName := r.URL.Query().Get("itemName")

	result, err := s.svc.Search(itemID, itemName)
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := searchResponse{Success: true, Found: result.Found, RetrievalSteps: result.RetrievalSteps}
	if resp.RetrievalSteps == nil {
		resp.RetrievalSteps = []engine.RetrievalStep{}
	}
	if result.Found {
		resp.Item = &searchItem{
			ItemID:      result.Item.ItemID,
			Name:        result.Item.Name,
			ContainerID: result.Item.ContainerID,
			Zone:        result.Zone,
			Position:    result.Item.Position,
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	var req retrieveRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if _, err := s.svc.Retrieve(req.ItemID, req.UserID); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handlePlace(w http.ResponseWriter, r *http.Request) {
	var req placeRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.svc.ManualPlace(req.ItemID, req.ContainerID, req.Position, req.UserID); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleIdentifyWaste(w http.ResponseWriter, r *http.Request) {
	waste, err := s.svc.IdentifyWaste()
	if err != nil {
		s.writeError(w, err)
		return
	}
	if waste == nil {
		waste = []service.WasteItem{}
	}
	s.writeJSON(w, http.StatusOK, wasteIdentifyResponse{Success: true, WasteItems: waste})
}

func (s *Server) handleReturnPlan(w http.ResponseWriter, r *http.Request) {
	var req returnPlanRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	date, err := model.ParseDate(req.UndockingDate)
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: %v", service.ErrInputInvalid, err))
		return
	}

	plan, err := s.svc.PlanReturn(req.UndockingContainerID, date, req.MaxWeight)
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := returnPlanResponse{
		Success:        true,
		ReturnPlan:     plan.Moves,
		RetrievalSteps: plan.RetrievalSteps,
		ReturnManifest: plan.Manifest,
	}
	if resp.ReturnPlan == nil {
		resp.ReturnPlan = []lifecycle.MoveStep{}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCompleteUndocking(w http.ResponseWriter, r *http.Request) {
	var req undockingRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	removed, err := s.svc.CompleteUndocking(req.UndockingContainerID, req.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, undockingResponse{Success: true, ItemsRemoved: removed})
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	days := 0
	if req.NumOfDays != nil {
		days = *req.NumOfDays
	}
	var target model.Date
	if req.ToTimestamp != "" {
		var err error
		target, err = model.ParseDate(req.ToTimestamp)
		if err != nil {
			s.writeError(w, fmt.Errorf("%w: %v", service.ErrInputInvalid, err))
			return
		}
	}

	result, err := s.svc.Simulate(days, target, req.ItemsToBeUsedPerDay)
	if err != nil {
		s.writeError(w, err)
		return
	}

	changes := simulateChanges{
		ItemsUsed:          result.Used,
		ItemsExpired:       []usedItemRef{},
		ItemsDepletedToday: []usedItemRef{},
	}
	if changes.ItemsUsed == nil {
		changes.ItemsUsed = []lifecycle.Usage{}
	}
	for _, it := range result.Expired {
		changes.ItemsExpired = append(changes.ItemsExpired, usedItemRef{ItemID: it.ItemID, Name: it.Name})
	}
	for _, it := range result.Depleted {
		changes.ItemsDepletedToday = append(changes.ItemsDepletedToday, usedItemRef{ItemID: it.ItemID, Name: it.Name})
	}

	s.writeJSON(w, http.StatusOK, simulateResponse{
		Success: true,
		NewDate: result.NewDate.String(),
		Changes: changes,
	})
}

// importBody returns the uploaded file when the request is multipart, or
// the raw body otherwise, so curl-style piping works too.
func (s *Server) importBody(r *http.Request) (io.ReadCloser, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxImportSize); err != nil {
			return nil, fmt.Errorf("%w: %v", service.ErrInputInvalid, err)
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("%w: missing file field", service.ErrInputInvalid)
		}
		return file, nil
	}
	return http.MaxBytesReader(nil, r.Body, maxImportSize), nil
}

func (s *Server) handleImportItems(w http.ResponseWriter, r *http.Request) {
	body, err := s.importBody(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer body.Close()

	count, rowErrors := s.svc.ImportItems(body, r.URL.Query().Get("userId"))
	s.writeJSON(w, http.StatusOK, importResponse{Success: true, Imported: count, Errors: rowErrors})
}

func (s *Server) handleImportContainers(w http.ResponseWriter, r *http.Request) {
	body, err := s.importBody(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer body.Close()

	count, rowErrors := s.svc.ImportContainers(body, r.URL.Query().Get("userId"))
	s.writeJSON(w, http.StatusOK, importResponse{Success: true, Imported: count, Errors: rowErrors})
}

func (s *Server) handleExportArrangement(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="arrangement.csv"`)
	if err := s.svc.ExportArrangement(w); err != nil {
		s.log.Warn("arrangement export failed", zap.Error(err))
	}
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	q := audit.Query{
		ItemID:     r.URL.Query().Get("itemId"),
		UserID:     r.URL.Query().Get("userId"),
		ActionType: r.URL.Query().Get("actionType"),
	}
	if v := r.URL.Query().Get("startDate"); v != "" {
		d, err := model.ParseDate(v)
		if err != nil {
			s.writeError(w, fmt.Errorf("%w: %v", service.ErrInputInvalid, err))
			return
		}
		q.From = d.Time()
	}
	if v := r.URL.Query().Get("endDate"); v != "" {
		d, err := model.ParseDate(v)
		if err != nil {
			s.writeError(w, fmt.Errorf("%w: %v", service.ErrInputInvalid, err))
			return
		}
		// The end date is inclusive: extend to the end of that day.
		q.To = d.Time().Add(24*time.Hour - time.Nanosecond)
	}

	logs := s.svc.Logs(q)
	if logs == nil {
		logs = []audit.Entry{}
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"logs": logs})
}
