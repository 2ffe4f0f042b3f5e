package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/childcare-incidents-api/internal/dto"
	"github.com/noah-isme/childcare-incidents-api/internal/middleware"
	"github.com/noah-isme/childcare-incidents-api/internal/models"
	appErrors "github.com/noah-isme/childcare-incidents-api/pkg/errors"
	"github.com/noah-isme/childcare-incidents-api/pkg/response"
)

type incidentService interface {
	Templates() []models.IncidentTemplate
	Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.Incident, error)
	ListAll(ctx context.Context, actor *models.JWTClaims) ([]models.Incident, error)
	ListPendingSignature(ctx context.Context, actor *models.JWTClaims) ([]models.Incident, error)
	ListRequiringFollowUp(ctx context.Context, actor *models.JWTClaims, asOf *time.Time) ([]models.Incident, error)
	Create(ctx context.Context, actor *models.JWTClaims, req dto.CreateIncidentRequest) (*models.Incident, error)
	CreateFromTemplate(ctx context.Context, actor *models.JWTClaims, req dto.CreateFromTemplateRequest) (*dto.FromTemplateResponse, error)
	Update(ctx context.Context, actor *models.JWTClaims, id string, req dto.UpdateIncidentRequest) (*models.Incident, error)
	MarkParentNotified(ctx context.Context, actor *models.JWTClaims, id string, req dto.NotifyParentRequest) (*models.Incident, error)
	RecordSignature(ctx context.Context, actor *models.JWTClaims, id string, req dto.SignatureRequest) (*dto.SignatureResult, error)
	CloseIncident(ctx context.Context, actor *models.JWTClaims, id string, req dto.CloseIncidentRequest) (*models.Incident, error)
	CompleteFollowUp(ctx context.Context, actor *models.JWTClaims, id string) (*models.Incident, error)
	Stats(ctx context.Context, actor *models.JWTClaims) (*models.IncidentStats, bool, error)
	History(ctx context.Context, actor *models.JWTClaims, id string) ([]dto.IncidentHistoryEntry, error)
}

// IncidentHandler exposes the incident lifecycle endpoints.
type IncidentHandler struct {
	service incidentService
}

// NewIncidentHandler builds a new handler.
func NewIncidentHandler(service incidentService) *IncidentHandler {
	return &IncidentHandler{service: service}
}

// List godoc
// @Summary List incidents
// @Tags Incidents
// @Produce json
// @Param view query string false "pending_signature or follow_up"
// @Param asOf query string false "Follow-up cutoff date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.Envelope
// @Router /incidents [get]
func (h *IncidentHandler) List(c *gin.Context) {
	var query dto.IncidentListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query parameters"))
		return
	}
	claims := claimsFromContext(c)

	var (
		items []models.Incident
		err   error
	)
	switch query.View {
	case dto.IncidentViewAll:
		items, err = h.service.ListAll(c.Request.Context(), claims)
	case dto.IncidentViewPendingSignature:
		items, err = h.service.ListPendingSignature(c.Request.Context(), claims)
	case dto.IncidentViewFollowUp:
		items, err = h.service.ListRequiringFollowUp(c.Request.Context(), claims, query.AsOf)
	default:
		err = appErrors.Clone(appErrors.ErrValidation, "view must be pending_signature or follow_up")
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	if items == nil {
		items = []models.Incident{}
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"count": len(items)})
}

// Stats godoc
// @Summary Incident dashboard counters
// @Tags Incidents
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /incidents/stats [get]
func (h *IncidentHandler) Stats(c *gin.Context) {
	stats, hit, err := h.service.Stats(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, stats, middleware.ExtractMeta(c))
}

// Templates godoc
// @Summary List incident templates
// @Tags Incidents
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /incidents/templates [get]
func (h *IncidentHandler) Templates(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Templates())
}

// Get godoc
// @Summary Get an incident
// @Tags Incidents
// @Produce json
// @Param id path string true "Incident ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /incidents/{id} [get]
func (h *IncidentHandler) Get(c *gin.Context) {
	incident, err := h.service.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, incident)
}

// History godoc
// @Summary Incident audit trail
// @Tags Incidents
// @Produce json
// @Param id path string true "Incident ID"
// @Success 200 {object} response.Envelope
// @Router /incidents/{id}/history [get]
func (h *IncidentHandler) History(c *gin.Context) {
	entries, err := h.service.History(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries)
}

// Create godoc
// @Summary Report a new incident
// @Tags Incidents
// @Accept json
// @Produce json
// @Param payload body dto.CreateIncidentRequest true "Incident payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /incidents [post]
func (h *IncidentHandler) Create(c *gin.Context) {
	var req dto.CreateIncidentRequest
	if !bindJSON(c, &req) {
		return
	}
	incident, err := h.service.Create(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, incident)
}

// CreateFromTemplate godoc
// @Summary Create an incident from a template
// @Tags Incidents
// @Accept json
// @Produce json
// @Param payload body dto.CreateFromTemplateRequest true "Template payload"
// @Success 201 {object} response.Envelope
// @Router /incidents/from-template [post]
func (h *IncidentHandler) CreateFromTemplate(c *gin.Context) {
	var req dto.CreateFromTemplateRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.service.CreateFromTemplate(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Update godoc
// @Summary Update editable incident fields
// @Description Only keys present in the payload are written; null clears a nullable field. Status cannot be changed here.
// @Tags Incidents
// @Accept json
// @Produce json
// @Param id path string true "Incident ID"
// @Param payload body dto.UpdateIncidentRequest true "Partial update"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /incidents/{id} [patch]
func (h *IncidentHandler) Update(c *gin.Context) {
	var req dto.UpdateIncidentRequest
	if !bindJSON(c, &req) {
		return
	}
	incident, err := h.service.Update(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, incident)
}

// NotifyParent godoc
// @Summary Record the guardian notification
// @Tags Incidents
// @Accept json
// @Produce json
// @Param id path string true "Incident ID"
// @Param payload body dto.NotifyParentRequest true "Notification method"
// @Success 200 {object} response.Envelope
// @Router /incidents/{id}/notify-parent [post]
func (h *IncidentHandler) NotifyParent(c *gin.Context) {
	var req dto.NotifyParentRequest
	if !bindJSON(c, &req) {
		return
	}
	incident, err := h.service.MarkParentNotified(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, incident)
}

// Sign godoc
// @Summary Record the guardian signature
// @Description A storage failure is reported as success=false with HTTP 200 so the client can retry.
// @Tags Incidents
// @Accept json
// @Produce json
// @Param id path string true "Incident ID"
// @Param payload body dto.SignatureRequest true "Signature"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /incidents/{id}/signature [post]
func (h *IncidentHandler) Sign(c *gin.Context) {
	var req dto.SignatureRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.service.RecordSignature(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Close godoc
// @Summary Close a signed incident
// @Tags Incidents
// @Accept json
// @Produce json
// @Param id path string true "Incident ID"
// @Param payload body dto.CloseIncidentRequest false "Closure notes"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /incidents/{id}/close [post]
func (h *IncidentHandler) Close(c *gin.Context) {
	var req dto.CloseIncidentRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	incident, err := h.service.CloseIncident(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, incident)
}

// CompleteFollowUp godoc
// @Summary Mark the follow-up as completed
// @Tags Incidents
// @Produce json
// @Param id path string true "Incident ID"
// @Success 200 {object} response.Envelope
// @Router /incidents/{id}/follow-up/complete [post]
func (h *IncidentHandler) CompleteFollowUp(c *gin.Context) {
	incident, err := h.service.CompleteFollowUp(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, incident)
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return false
	}
	return true
}
