package http

import (
	"errors"
	"net/http"

	"budgetbabah/internal/app"
	"budgetbabah/internal/core"
)

// mapAppError translates application errors into HTTP status codes.
func mapAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrInvalidMonth):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrInvalidCategory):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrItemNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrInvalidAmount), errors.Is(err, core.ErrEmptyItemLabel):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// sanitizeItem cleans the free-text fields of an incoming item.
func sanitizeItem(item core.BudgetItem) core.BudgetItem {
	item.Item = sanitizeInput(item.Item)
	item.Name = sanitizeInput(item.Name)
	item.Method = sanitizeInput(item.Method)
	item.Notes = sanitizeInput(item.Notes)
	return item
}

func (s *Server) handleYear(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, s.app.YearData())
}

func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	month, err := parseMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	data, err := s.app.MonthData(month)
	if err != nil {
		mapAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleMonthSummary(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	month, err := parseMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	summary, err := s.app.MonthSummary(month)
	if err != nil {
		mapAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type itemRequest struct {
	Month int             `json:"month"`
	Item  core.BudgetItem `json:"item"`
}

type itemRefRequest struct {
	Month    int           `json:"month"`
	ID       string        `json:"id"`
	Category core.Category `json:"category"`
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req itemRequest
		if !decodeBody(w, r, &req) {
			return
		}
		item, err := s.app.AddItem(r.Context(), req.Month, sanitizeItem(req.Item))
		if err != nil {
			mapAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, item)
	case http.MethodPut:
		var req itemRequest
		if !decodeBody(w, r, &req) {
			return
		}
		item, err := s.app.UpdateItem(r.Context(), req.Month, sanitizeItem(req.Item))
		if err != nil {
			mapAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	case http.MethodDelete:
		var req itemRefRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if err := s.app.DeleteItem(r.Context(), req.Month, req.ID, req.Category); err != nil {
			mapAppError(w, err)
			return
		}
		writeJSON(w, http.StatusNoContent, nil)
	default:
		requireMethod(w, r, http.MethodPost, http.MethodPut, http.MethodDelete)
	}
}

func (s *Server) handleDuplicateItem(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req itemRefRequest
	if !decodeBody(w, r, &req) {
		return
	}
	item, err := s.app.DuplicateItem(r.Context(), req.Month, req.ID, req.Category)
	if err != nil {
		mapAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

type monthRequest struct {
	Month int `json:"month"`
}

type clearCategoryRequest struct {
	Month    int           `json:"month"`
	Category core.Category `json:"category"`
}

func (s *Server) handleClearMonth(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req monthRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.app.ClearMonthAmounts(r.Context(), req.Month); err != nil {
		mapAppError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleClearCategory(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req clearCategoryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.app.ClearCategoryAmounts(r.Context(), req.Month, req.Category); err != nil {
		mapAppError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleCopyPrevious(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req monthRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.app.CopyFromPreviousMonth(r.Context(), req.Month); err != nil {
		mapAppError(w, err)
		return
	}
	data, err := s.app.MonthData(req.Month)
	if err != nil {
		mapAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleSyncPush(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if err := s.app.ManualPush(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(s.app.Status())})
}

func (s *Server) handleSyncPull(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if err := s.app.ManualPull(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.app.YearData())
}

type testConnectionRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleSyncTest(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req testConnectionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.app.TestConnection(r.Context(), req.URL); err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleSyncSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.app.Settings(r.Context()))
	case http.MethodPut:
		var settings core.SyncSettings
		if !decodeBody(w, r, &settings) {
			return
		}
		settings.ScriptURL = sanitizeInput(settings.ScriptURL)
		if err := s.app.SaveSyncSettings(r.Context(), settings); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, s.app.Settings(r.Context()))
	default:
		requireMethod(w, r, http.MethodGet, http.MethodPut)
	}
}

func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(s.app.Status())})
}

type preferences struct {
	ViewMode string `json:"viewMode"`
	Theme    string `json:"theme"`
}

func (s *Server) handlePreferences(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, preferences{ViewMode: s.app.ViewMode(), Theme: s.app.Theme()})
	case http.MethodPut:
		var prefs preferences
		if !decodeBody(w, r, &prefs) {
			return
		}
		if prefs.ViewMode != "" {
			if err := s.app.SetViewMode(r.Context(), prefs.ViewMode); err != nil {
				writeError(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
		}
		if prefs.Theme != "" {
			if err := s.app.SetTheme(r.Context(), prefs.Theme); err != nil {
				writeError(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
		}
		writeJSON(w, http.StatusOK, preferences{ViewMode: s.app.ViewMode(), Theme: s.app.Theme()})
	default:
		requireMethod(w, r, http.MethodGet, http.MethodPut)
	}
}
