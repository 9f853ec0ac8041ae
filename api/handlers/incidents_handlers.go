package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"incident-tracker/config"
	"incident-tracker/core/incidents"
	"incident-tracker/core/store"
	"incident-tracker/core/utils"
)

const (
	titleMaxLen   = 255
	serviceMaxLen = 100
	ownerMaxLen   = 100
)

var validSeverity = map[string]struct{}{
	store.SeveritySEV1: {},
	store.SeveritySEV2: {},
	store.SeveritySEV3: {},
	store.SeveritySEV4: {},
}

var validStatus = map[string]struct{}{
	store.StatusOpen:      {},
	store.StatusMitigated: {},
	store.StatusResolved:  {},
}

type IncidentsHandler struct {
	cfg    *config.AppConfig
	store  store.IncidentsStore
	svc    *incidents.Service
	logger *utils.Logger
}

func NewIncidentsHandler(cfg *config.AppConfig, is store.IncidentsStore, svc *incidents.Service, logger *utils.Logger) *IncidentsHandler {
	return &IncidentsHandler{cfg: cfg, store: is, svc: svc, logger: logger}
}

func (h *IncidentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Title    string  `json:"title"`
		Service  string  `json:"service"`
		Severity string  `json:"severity"`
		Status   string  `json:"status"`
		Owner    *string `json:"owner"`
		Summary  *string `json:"summary"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	fields := map[string]string{}
	title := strings.TrimSpace(payload.Title)
	switch {
	case title == "":
		fields["title"] = "required"
	case len(title) > titleMaxLen:
		fields["title"] = "too long"
	}
	service := strings.TrimSpace(payload.Service)
	switch {
	case service == "":
		fields["service"] = "required"
	case len(service) > serviceMaxLen:
		fields["service"] = "too long"
	}
	severity := strings.ToUpper(strings.TrimSpace(payload.Severity))
	if _, ok := validSeverity[severity]; !ok {
		fields["severity"] = "must be one of SEV1, SEV2, SEV3, SEV4"
	}
	status := strings.ToUpper(strings.TrimSpace(payload.Status))
	if status == "" {
		status = store.StatusOpen
	}
	if _, ok := validStatus[status]; !ok {
		fields["status"] = "must be one of OPEN, MITIGATED, RESOLVED"
	}
	owner := trimPtr(payload.Owner)
	if owner != nil && len(*owner) > ownerMaxLen {
		fields["owner"] = "too long"
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "validation failed", "fields": fields})
		return
	}
	incident := &store.Incident{
		Title:    title,
		Service:  service,
		Severity: severity,
		Status:   status,
		Owner:    owner,
		Summary:  trimPtr(payload.Summary),
	}
	id, err := h.store.CreateIncident(r.Context(), incident)
	if err != nil {
		if h.logger != nil {
			h.logger.Errorf("create incident: %v", err)
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	created, err := h.store.GetIncident(r.Context(), id)
	if err != nil {
		if h.logger != nil {
			h.logger.Errorf("reload incident %d: %v", id, err)
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *IncidentsHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	params := incidents.ListParams{
		Limit:   parseIntDefault(query.Get("limit"), 0),
		Cursor:  strings.TrimSpace(query.Get("cursor")),
		Search:  strings.TrimSpace(query.Get("search")),
		Service: strings.TrimSpace(query.Get("service")),
	}
	if raw := strings.ToUpper(strings.TrimSpace(query.Get("severity"))); raw != "" {
		if _, ok := validSeverity[raw]; !ok {
			http.Error(w, "invalid severity", http.StatusBadRequest)
			return
		}
		params.Severity = raw
	}
	if raw := strings.ToUpper(strings.TrimSpace(query.Get("status"))); raw != "" {
		if _, ok := validStatus[raw]; !ok {
			http.Error(w, "invalid status", http.StatusBadRequest)
			return
		}
		params.Status = raw
	}
	page, err := h.svc.List(r.Context(), params)
	if err != nil {
		if errors.Is(err, incidents.ErrInvalidCursor) {
			http.Error(w, "invalid cursor", http.StatusBadRequest)
			return
		}
		if h.logger != nil {
			h.logger.Errorf("list incidents: %v", err)
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	items := page.Items
	if items == nil {
		items = []store.Incident{}
	}
	resp := map[string]any{
		"items":      items,
		"hasMore":    page.HasMore,
		"nextCursor": nil,
	}
	if page.NextCursor != "" {
		resp["nextCursor"] = page.NextCursor
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *IncidentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(pathParams(r)["id"], 10, 64)
	incident, err := h.store.GetIncident(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "incident not found", http.StatusNotFound)
			return
		}
		if h.logger != nil {
			h.logger.Errorf("get incident %d: %v", id, err)
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, incident)
}

func (h *IncidentsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(pathParams(r)["id"], 10, 64)
	var payload struct {
		Title    *string `json:"title"`
		Service  *string `json:"service"`
		Severity *string `json:"severity"`
		Status   *string `json:"status"`
		Owner    *string `json:"owner"`
		Summary  *string `json:"summary"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	fields := map[string]string{}
	patch := store.IncidentPatch{Owner: trimPtr(payload.Owner), Summary: trimPtr(payload.Summary)}
	if payload.Title != nil {
		title := strings.TrimSpace(*payload.Title)
		switch {
		case title == "":
			fields["title"] = "required"
		case len(title) > titleMaxLen:
			fields["title"] = "too long"
		default:
			patch.Title = &title
		}
	}
	if payload.Service != nil {
		service := strings.TrimSpace(*payload.Service)
		switch {
		case service == "":
			fields["service"] = "required"
		case len(service) > serviceMaxLen:
			fields["service"] = "too long"
		default:
			patch.Service = &service
		}
	}
	if payload.Severity != nil {
		severity := strings.ToUpper(strings.TrimSpace(*payload.Severity))
		if _, ok := validSeverity[severity]; !ok {
			fields["severity"] = "must be one of SEV1, SEV2, SEV3, SEV4"
		} else {
			patch.Severity = &severity
		}
	}
	if payload.Status != nil {
		status := strings.ToUpper(strings.TrimSpace(*payload.Status))
		if _, ok := validStatus[status]; !ok {
			fields["status"] = "must be one of OPEN, MITIGATED, RESOLVED"
		} else {
			patch.Status = &status
		}
	}
	if patch.Owner != nil && len(*patch.Owner) > ownerMaxLen {
		fields["owner"] = "too long"
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "validation failed", "fields": fields})
		return
	}
	incident, err := h.store.UpdateIncident(r.Context(), id, patch)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "incident not found", http.StatusNotFound)
			return
		}
		if h.logger != nil {
			h.logger.Errorf("update incident %d: %v", id, err)
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, incident)
}

func trimPtr(val *string) *string {
	if val == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*val)
	return &trimmed
}

func parseIntDefault(raw string, def int) int {
	val, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	return val
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
