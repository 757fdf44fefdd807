package v1

import (
	"errors"
	"net/http"

	"github.com/CHEzRIF21/logiclinic/internal/domain/billing"
	"github.com/CHEzRIF21/logiclinic/internal/domain/dispensation"
	"github.com/CHEzRIF21/logiclinic/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type DispensationHandler struct {
	svc *service.DispensationService
}

func NewDispensationHandler(svc *service.DispensationService) *DispensationHandler {
	return &DispensationHandler{svc: svc}
}

type beginDispensationRequest struct {
	PrescriptionID uuid.UUID `json:"prescription_id" binding:"required"`
}

func (h *DispensationHandler) Begin(c *gin.Context) {
	var req beginDispensationRequest
	if !bindJSON(c, &req) {
		return
	}

	d, err := h.svc.Begin(c.Request.Context(), req.PrescriptionID, caller(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, d)
}

type addLineRequest struct {
	PrescriptionLineID uuid.UUID `json:"prescription_ligne_id" binding:"required"`
	LotID              uuid.UUID `json:"lot_id" binding:"required"`
	Quantite           int       `json:"quantite" binding:"required"`
}

func (h *DispensationHandler) AddLine(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req addLineRequest
	if !bindJSON(c, &req) {
		return
	}

	line, err := h.svc.AddLine(c.Request.Context(), id, &dispensation.AddLineCommand{
		PrescriptionLineID: req.PrescriptionLineID,
		LotID:              req.LotID,
		Quantite:           req.Quantite,
	}, caller(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, line)
}

type finalizeRequest struct {
	Observations string `json:"observations"`
}

func (h *DispensationHandler) Finalize(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req finalizeRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	d, err := h.svc.Finalize(c.Request.Context(), id, req.Observations, caller(c))
	if err != nil {
		// A billing integration failure arrives with the committed
		// dispensation: report success with a retriable warning instead
		// of pretending the dispensation failed.
		var integErr *billing.IntegrationError
		if errors.As(err, &integErr) && d != nil {
			c.JSON(http.StatusOK, APIResponse[any]{
				Data:    d,
				Message: integErr.Code + ": " + integErr.Message,
			})
			return
		}
		respondServiceError(c, err)
		return
	}
	respondOK(c, d)
}

func (h *DispensationHandler) Validate(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	d, err := h.svc.Validate(c.Request.Context(), id, caller(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, d)
}

func (h *DispensationHandler) Cancel(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	d, err := h.svc.Cancel(c.Request.Context(), id, caller(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, d)
}

func (h *DispensationHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	d, err := h.svc.GetDispensation(c.Request.Context(), id, caller(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, d)
}

func (h *DispensationHandler) List(c *gin.Context) {
	q := &dispensation.ListDispensationsQuery{
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}
	if raw := c.Query("patient_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, 400, "invalid patient_id: must be a valid UUID")
			return
		}
		q.PatientID = &id
	}
	if raw := c.Query("statut"); raw != "" {
		status := dispensation.Status(raw)
		q.Status = &status
	}

	paged, err := h.svc.ListDispensations(c.Request.Context(), q, caller(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, paged)
}
