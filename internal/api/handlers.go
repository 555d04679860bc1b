package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/daimoniac/eoltrack/internal/analyzer"
	eolerrors "github.com/daimoniac/eoltrack/internal/errors"
	"github.com/daimoniac/eoltrack/internal/observability"
	"github.com/daimoniac/eoltrack/internal/statestore"
	"github.com/daimoniac/eoltrack/internal/types"
)

const defaultPageSize = 20

// handleEquipmentCollection dispatches GET and POST on /equipment
func (s *APIServer) handleEquipmentCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListEquipment(w, r)
	case http.MethodPost:
		s.handleCreateEquipment(w, r)
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleListEquipment lists equipment with optional filters
// @Summary List equipment
// @Description List the inventory, optionally filtered. The response is paginated when paginated=true or page is given.
// @Tags Equipment
// @Produce json
// @Param search query string false "Substring of name, location, IP address or OS"
// @Param type query string false "Equipment type (all for any)"
// @Param status query string false "Equipment status (Active, Obsolete, In Stock or all)"
// @Param location query string false "Location (all for any)"
// @Param paginated query boolean false "Wrap the result in a page object"
// @Param page query int false "Page number, starting at 1" default(1)
// @Param pageSize query int false "Page size" default(20)
// @Success 200 {array} EquipmentResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Security BearerAuth
// @Router /equipment [get]
func (s *APIServer) handleListEquipment(w http.ResponseWriter, r *http.Request) {
	filter := statestore.EquipmentFilter{
		Search:   parseQueryParam(r, "search", "q"),
		Type:     parseQueryParam(r, "type", "equipment_type"),
		Status:   parseQueryParam(r, "status"),
		Location: parseQueryParam(r, "location"),
	}

	paginated := parseQueryParamBool(r, "paginated") || parseQueryParam(r, "page") != ""
	page, pageSize := 1, defaultPageSize
	if paginated {
		page = parseQueryParamInt(r, "page", 1)
		if page < 1 {
			page = 1
		}
		pageSize = parseQueryParamInt(r, "pageSize", parseQueryParamInt(r, "limit", defaultPageSize))
		if pageSize < 1 {
			pageSize = defaultPageSize
		}
		filter.Limit = pageSize
		filter.Offset = (page - 1) * pageSize
	}

	list, total, err := s.store.ListEquipment(r.Context(), filter)
	if err != nil {
		s.respondStoreError(w, "list equipment", err)
		return
	}

	items := toEquipmentResponses(list)
	if !paginated {
		s.respondJSON(w, http.StatusOK, items)
		return
	}
	s.respondJSON(w, http.StatusOK, PaginatedEquipmentResponse{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// handleCreateEquipment adds a piece of equipment
// @Summary Create equipment
// @Description Add a piece of equipment with its installed applications
// @Tags Equipment
// @Accept json
// @Produce json
// @Param equipment body EquipmentRequest true "Equipment to create"
// @Success 201 {object} EquipmentResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Read-only mode"
// @Failure 500 {object} map[string]string "Internal server error"
// @Security BearerAuth
// @Router /equipment [post]
func (s *APIServer) handleCreateEquipment(w http.ResponseWriter, r *http.Request) {
	var req EquipmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if missing := missingRequired(&req); len(missing) > 0 {
		s.respondError(w, http.StatusBadRequest, "missing required fields: "+strings.Join(missing, ", "))
		return
	}

	update, err := req.toUpdate()
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	equipment := &types.Equipment{
		Name:            *update.Name,
		EquipmentType:   *update.EquipmentType,
		Location:        *update.Location,
		AcquisitionDate: update.AcquisitionDate,
		WarrantyEndDate: update.WarrantyEndDate,
	}
	if update.IPAddress != nil {
		equipment.IPAddress = *update.IPAddress
	}
	if update.OSName != nil {
		equipment.OSName = *update.OSName
	}
	if update.OSVersion != nil {
		equipment.OSVersion = *update.OSVersion
	}
	if update.Status != nil {
		equipment.Status = *update.Status
	}
	if update.Applications != nil {
		equipment.Applications = *update.Applications
	}

	created, err := s.store.CreateEquipment(r.Context(), equipment)
	if err != nil {
		s.respondStoreError(w, "create equipment", err)
		return
	}

	observability.GetMetrics().EquipmentMutations.WithLabelValues("create").Inc()
	s.logger.Info("equipment created",
		"id", created.ID,
		"name", created.Name)
	s.respondJSON(w, http.StatusCreated, toEquipmentResponse(created))
}

// handleEquipmentItem dispatches GET, PUT and DELETE on /equipment/{id}
func (s *APIServer) handleEquipmentItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "/api/v1/equipment/")
	if !ok {
		s.respondError(w, http.StatusBadRequest, "Invalid equipment id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGetEquipment(w, r, id)
	case http.MethodPut:
		s.handleUpdateEquipment(w, r, id)
	case http.MethodDelete:
		s.handleDeleteEquipment(w, r, id)
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleGetEquipment retrieves one piece of equipment
// @Summary Get equipment
// @Description Retrieve one piece of equipment with its applications
// @Tags Equipment
// @Produce json
// @Param id path int true "Equipment id"
// @Success 200 {object} EquipmentResponse
// @Failure 400 {object} map[string]string "Invalid id"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Equipment not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Security BearerAuth
// @Router /equipment/{id} [get]
func (s *APIServer) handleGetEquipment(w http.ResponseWriter, r *http.Request, id int64) {
	equipment, err := s.store.GetEquipment(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, "get equipment", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toEquipmentResponse(equipment))
}

// handleUpdateEquipment applies a partial update
// @Summary Update equipment
// @Description Update the given fields. A present applications list replaces the installed applications.
// @Tags Equipment
// @Accept json
// @Produce json
// @Param id path int true "Equipment id"
// @Param equipment body EquipmentRequest true "Fields to change"
// @Success 200 {object} EquipmentResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Read-only mode"
// @Failure 404 {object} map[string]string "Equipment not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Security BearerAuth
// @Router /equipment/{id} [put]
func (s *APIServer) handleUpdateEquipment(w http.ResponseWriter, r *http.Request, id int64) {
	var req EquipmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	update, err := req.toUpdate()
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := s.store.UpdateEquipment(r.Context(), id, update)
	if err != nil {
		s.respondStoreError(w, "update equipment", err)
		return
	}

	observability.GetMetrics().EquipmentMutations.WithLabelValues("update").Inc()
	s.logger.Info("equipment updated", "id", id)
	s.respondJSON(w, http.StatusOK, toEquipmentResponse(updated))
}

// handleDeleteEquipment removes a piece of equipment
// @Summary Delete equipment
// @Description Delete a piece of equipment and its installed applications
// @Tags Equipment
// @Produce json
// @Param id path int true "Equipment id"
// @Success 200 {object} map[string]string "Deletion confirmed"
// @Failure 400 {object} map[string]string "Invalid id"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Read-only mode"
// @Failure 404 {object} map[string]string "Equipment not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Security BearerAuth
// @Router /equipment/{id} [delete]
func (s *APIServer) handleDeleteEquipment(w http.ResponseWriter, r *http.Request, id int64) {
	if err := s.store.DeleteEquipment(r.Context(), id); err != nil {
		s.respondStoreError(w, "delete equipment", err)
		return
	}

	observability.GetMetrics().EquipmentMutations.WithLabelValues("delete").Inc()
	s.logger.Info("equipment deleted", "id", id)
	s.respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Equipment %d deleted", id),
	})
}

// handleEquipmentStats returns the inventory breakdown
// @Summary Equipment statistics
// @Description Totals and breakdowns by type, status and location. The location filter does not apply to the location breakdown.
// @Tags Equipment
// @Produce json
// @Param location query string false "Restrict to one location (all for any)"
// @Success 200 {object} EquipmentStatsResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Security BearerAuth
// @Router /equipment/stats [get]
func (s *APIServer) handleEquipmentStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	stats, err := s.store.EquipmentStats(r.Context(), parseQueryParam(r, "location"))
	if err != nil {
		s.respondStoreError(w, "compute equipment stats", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toEquipmentStatsResponse(stats))
}

// handleListLocations lists the distinct equipment locations
// @Summary List locations
// @Tags Equipment
// @Produce json
// @Success 200 {object} LocationsResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Security BearerAuth
// @Router /equipment/locations [get]
func (s *APIServer) handleListLocations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	locations, err := s.store.ListLocations(r.Context())
	if err != nil {
		s.respondStoreError(w, "list locations", err)
		return
	}
	if locations == nil {
		locations = []string{}
	}
	s.respondJSON(w, http.StatusOK, LocationsResponse{Locations: locations})
}

// handleAnalyze runs a full analysis pass
// @Summary Run analysis
// @Description Classify every operating system and application in the inventory and replace the stored results
// @Tags Obsolescence
// @Produce json
// @Success 200 {object} AnalyzeResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Read-only mode"
// @Failure 500 {object} map[string]string "Analysis failed"
// @Security BearerAuth
// @Router /obsolescence/analyze [post]
func (s *APIServer) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	summary, err := s.service.Run(r.Context())
	if err != nil {
		s.logger.Error("analysis failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, fmt.Sprintf("Analysis failed: %v", err))
		return
	}

	s.respondJSON(w, http.StatusOK, AnalyzeResponse{
		Message: fmt.Sprintf("Analysis completed: %d operating systems and %d applications classified",
			summary.OSAnalyzed, summary.ApplicationsAnalyzed),
		Summary: summary,
	})
}

// handleListProducts lists the classified products
// @Summary List classified products
// @Description Products from the last analysis, most severe first
// @Tags Obsolescence
// @Produce json
// @Param type query string false "Product type (OS or Application)"
// @Param status query string false "Status (Critical, High, Medium, Low, Unknown)"
// @Success 200 {array} ClassificationResponse
// @Failure 400 {object} map[string]string "Invalid filter"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Security BearerAuth
// @Router /obsolescence/products [get]
func (s *APIServer) handleListProducts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var filter statestore.ClassificationFilter
	if raw := parseQueryParam(r, "type", "product_type"); raw != "" {
		productType, ok := types.ParseProductType(raw)
		if !ok {
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid product type %q", raw))
			return
		}
		filter.ProductType = productType
	}
	if raw := parseQueryParam(r, "status"); raw != "" {
		status, ok := types.ParseStatus(raw)
		if !ok {
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid status %q", raw))
			return
		}
		filter.Status = status
	}

	classifications, err := s.store.ListClassifications(r.Context(), filter)
	if err != nil {
		s.respondStoreError(w, "list classifications", err)
		return
	}

	now := s.service.Analyzer().Now()
	resp := make([]ClassificationResponse, 0, len(classifications))
	for i := range classifications {
		resp = append(resp, toClassificationResponse(&classifications[i], now))
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// handleGetProduct retrieves one classified product
// @Summary Get classified product
// @Tags Obsolescence
// @Produce json
// @Param id path int true "Classification id"
// @Success 200 {object} ClassificationResponse
// @Failure 400 {object} map[string]string "Invalid id"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Product not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Security BearerAuth
// @Router /obsolescence/products/{id} [get]
func (s *APIServer) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id, ok := pathID(r, "/api/v1/obsolescence/products/")
	if !ok {
		s.respondError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	classification, err := s.store.GetClassification(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, "get classification", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toClassificationResponse(classification, s.service.Analyzer().Now()))
}

// handleObsolescenceStats summarizes the stored classifications
// @Summary Obsolescence statistics
// @Description Risk counts over the last analysis and the summary of that run
// @Tags Obsolescence
// @Produce json
// @Success 200 {object} ObsolescenceStatsResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Security BearerAuth
// @Router /obsolescence/stats [get]
func (s *APIServer) handleObsolescenceStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	classifications, err := s.store.ListClassifications(r.Context(), statestore.ClassificationFilter{})
	if err != nil {
		s.respondStoreError(w, "list classifications", err)
		return
	}

	s.respondJSON(w, http.StatusOK, ObsolescenceStatsResponse{
		Stats:   analyzer.Summarize(classifications),
		LastRun: s.service.LastRun(),
	})
}

// handleAlerts lists alerts for at-risk products
// @Summary Obsolescence alerts
// @Description One alert per affected equipment for every product the alert policy selects, earliest end of life first
// @Tags Obsolescence
// @Produce json
// @Param limit query int false "Maximum number of alerts" default(5)
// @Success 200 {object} AlertsResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Security BearerAuth
// @Router /obsolescence/alerts [get]
func (s *APIServer) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	classifications, err := s.store.ListClassifications(r.Context(), statestore.ClassificationFilter{})
	if err != nil {
		s.respondStoreError(w, "list classifications", err)
		return
	}

	limit := parseQueryParamInt(r, "limit", s.alertLimit)
	alerts, err := analyzer.BuildAlerts(r.Context(), classifications, s.alertPolicy, s.service.Analyzer().Now(), limit)
	if err != nil {
		s.logger.Error("failed to build alerts", "error", err)
		s.respondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to build alerts: %v", err))
		return
	}

	s.respondJSON(w, http.StatusOK, AlertsResponse{Alerts: alerts, Total: len(alerts)})
}

// handleCheckProduct classifies one product without storing the result
// @Summary Check a product
// @Description Classify one product on demand. Nothing is persisted.
// @Tags Obsolescence
// @Accept json
// @Produce json
// @Param product body CheckRequest true "Product to classify"
// @Success 200 {object} ClassificationResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Unknown operating system"
// @Security BearerAuth
// @Router /obsolescence/check [post]
func (s *APIServer) handleCheckProduct(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req CheckRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		s.respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	productType := types.ProductTypeApplication
	if req.Type != "" {
		parsed, ok := types.ParseProductType(req.Type)
		if !ok {
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid product type %q", req.Type))
			return
		}
		productType = parsed
	}

	a := s.service.Analyzer()
	classification, ok := a.Classify(r.Context(), types.ProductObservation{
		Name:        name,
		Version:     strings.TrimSpace(req.Version),
		ProductType: productType,
	})
	if !ok {
		s.respondError(w, http.StatusNotFound, fmt.Sprintf("No lifecycle data for %q", name))
		return
	}

	s.respondJSON(w, http.StatusOK, toClassificationResponse(&classification, a.Now()))
}

// handleHealth reports component health
// @Summary Health check
// @Description Overall status and the status of each checked component
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{} "Service is healthy"
// @Failure 503 {object} map[string]interface{} "Service is unhealthy"
// @Router /health [get]
func (s *APIServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if s.health == nil {
		s.respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
		return
	}

	health := s.health.GetHealth()
	status := http.StatusOK
	if health.Status == observability.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	s.respondJSON(w, status, health)
}

// respondStoreError maps store errors to HTTP statuses
func (s *APIServer) respondStoreError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, statestore.ErrEquipmentNotFound):
		s.respondError(w, http.StatusNotFound, "Equipment not found")
	case errors.Is(err, statestore.ErrClassificationNotFound):
		s.respondError(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, eolerrors.ErrInvalidInput):
		s.respondError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("store operation failed",
			"operation", op,
			"error", err)
		s.respondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to %s: %v", op, err))
	}
}

// missingRequired names the fields a create request must carry
func missingRequired(req *EquipmentRequest) []string {
	var missing []string
	for _, f := range []struct {
		name  string
		value *string
	}{
		{"name", req.Name},
		{"equipment_type", req.EquipmentType},
		{"location", req.Location},
	} {
		if f.value == nil || strings.TrimSpace(*f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// toUpdate converts the request, parsing dates. An empty date leaves the stored one unchanged.
func (req *EquipmentRequest) toUpdate() (statestore.EquipmentUpdate, error) {
	update := statestore.EquipmentUpdate{
		Name:          trimmed(req.Name),
		EquipmentType: trimmed(req.EquipmentType),
		Location:      trimmed(req.Location),
		IPAddress:     trimmed(req.IPAddress),
		OSName:        trimmed(req.OSName),
		OSVersion:     trimmed(req.OSVersion),
		Status:        trimmed(req.Status),
	}

	var err error
	if req.AcquisitionDate != nil {
		if update.AcquisitionDate, err = types.ParseDatePtr(*req.AcquisitionDate); err != nil {
			return update, fmt.Errorf("acquisition_date: %w", err)
		}
	}
	if req.WarrantyEndDate != nil {
		if update.WarrantyEndDate, err = types.ParseDatePtr(*req.WarrantyEndDate); err != nil {
			return update, fmt.Errorf("warranty_end_date: %w", err)
		}
	}

	if req.Applications != nil {
		apps := make([]types.InstalledApplication, 0, len(*req.Applications))
		for _, app := range *req.Applications {
			apps = append(apps, types.InstalledApplication{
				Name:    strings.TrimSpace(app.Name),
				Version: strings.TrimSpace(app.Version),
			})
		}
		update.Applications = &apps
	}
	return update, nil
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}
