package v1

import (
	"github.com/CHEzRIF21/logiclinic/internal/domain/prescription"
	"github.com/CHEzRIF21/logiclinic/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PrescriptionHandler struct {
	svc *service.PrescriptionService
}

func NewPrescriptionHandler(svc *service.PrescriptionService) *PrescriptionHandler {
	return &PrescriptionHandler{svc: svc}
}

type prescriptionLineRequest struct {
	MedicamentID   uuid.UUID `json:"medicament_id" binding:"required"`
	NomMedicament  string    `json:"nom_medicament" binding:"required"`
	Posologie      string    `json:"posologie"`
	QuantiteTotale int       `json:"quantite_totale" binding:"required"`
}

type createPrescriptionRequest struct {
	ConsultationID  uuid.UUID                 `json:"consultation_id" binding:"required"`
	PatientID       uuid.UUID                 `json:"patient_id" binding:"required"`
	PrescripteurID  uuid.UUID                 `json:"prescripteur_id" binding:"required"`
	PrescripteurNom string                    `json:"prescripteur_nom"`
	Lines           []prescriptionLineRequest `json:"lignes" binding:"required"`
}

func (h *PrescriptionHandler) Create(c *gin.Context) {
	var req createPrescriptionRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &prescription.CreatePrescriptionCommand{
		ConsultationID:  req.ConsultationID,
		PatientID:       req.PatientID,
		PrescripteurID:  req.PrescripteurID,
		PrescripteurNom: req.PrescripteurNom,
	}
	for _, l := range req.Lines {
		cmd.Lines = append(cmd.Lines, prescription.CreateLineInput{
			MedicamentID:   l.MedicamentID,
			NomMedicament:  l.NomMedicament,
			Posologie:      l.Posologie,
			QuantiteTotale: l.QuantiteTotale,
		})
	}

	p, err := h.svc.CreatePrescription(c.Request.Context(), cmd, caller(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, p)
}

func (h *PrescriptionHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	p, err := h.svc.GetPrescription(c.Request.Context(), id, caller(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, p)
}

func (h *PrescriptionHandler) ListActive(c *gin.Context) {
	var patientID *uuid.UUID
	if raw := c.Query("patient_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, 400, "invalid patient_id: must be a valid UUID")
			return
		}
		patientID = &id
	}

	prescriptions, err := h.svc.ListActive(c.Request.Context(), patientID, caller(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, prescriptions)
}

func (h *PrescriptionHandler) List(c *gin.Context) {
	q := &prescription.ListPrescriptionsQuery{
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
		status := prescription.Status(raw)
		q.Status = &status
	}

	paged, err := h.svc.ListPrescriptions(c.Request.Context(), q, caller(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, paged)
}

func (h *PrescriptionHandler) Cancel(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.CancelPrescription(c.Request.Context(), id, caller(c)); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"cancelled": true})
}

func (h *PrescriptionHandler) RecomputeStatus(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	p, err := h.svc.RecomputeStatus(c.Request.Context(), id, caller(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, p)
}
