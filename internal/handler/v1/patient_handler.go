package v1

import (
	"time"

	"github.com/CHEzRIF21/logiclinic/internal/domain/patient"
	"github.com/CHEzRIF21/logiclinic/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PatientHandler struct {
	svc *service.PatientService
}

func NewPatientHandler(svc *service.PatientService) *PatientHandler {
	return &PatientHandler{svc: svc}
}

type createPatientRequest struct {
	Identifiant    string     `json:"identifiant"`
	Nom            string     `json:"nom" binding:"required"`
	Prenoms        string     `json:"prenoms" binding:"required"`
	DateNaissance  time.Time  `json:"date_naissance" binding:"required"`
	Sexe           string     `json:"sexe" binding:"required"`
	Phone          string     `json:"phone"`
	Email          string     `json:"email"`
	Address        string     `json:"address"`
	City           string     `json:"city"`
	Country        string     `json:"country"`
	AssuranceID    *uuid.UUID `json:"assurance_id"`
	AssuranceNom   string     `json:"assurance_nom"`
	TauxCouverture int        `json:"taux_couverture"`
	Plafond        *int64     `json:"plafond"`
	Notes          string     `json:"notes"`
}

func (h *PatientHandler) Create(c *gin.Context) {
	var req createPatientRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &patient.CreatePatientCommand{
		Identifiant:   req.Identifiant,
		Nom:           req.Nom,
		Prenoms:       req.Prenoms,
		DateNaissance: req.DateNaissance,
		Sexe:          patient.Sexe(req.Sexe),
		Phone:         req.Phone,
		Email:         req.Email,
		Address:       req.Address,
		City:          req.City,
		Country:       req.Country,
		Coverage: patient.Coverage{
			AssuranceID:    req.AssuranceID,
			AssuranceNom:   req.AssuranceNom,
			TauxCouverture: req.TauxCouverture,
			Plafond:        req.Plafond,
		},
		Notes: req.Notes,
	}

	p, err := h.svc.CreatePatient(c.Request.Context(), cmd, caller(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, p)
}

func (h *PatientHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	p, err := h.svc.GetPatient(c.Request.Context(), id, caller(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, p)
}

type updatePatientRequest struct {
	Nom            *string          `json:"nom"`
	Prenoms        *string          `json:"prenoms"`
	Sexe           *string          `json:"sexe"`
	Phone          *string          `json:"phone"`
	Email          *string          `json:"email"`
	Address        *string          `json:"address"`
	City           *string          `json:"city"`
	Country        *string          `json:"country"`
	Coverage       *patient.Coverage `json:"coverage"`
	Notes          *string          `json:"notes"`
}

func (h *PatientHandler) Update(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req updatePatientRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &patient.UpdatePatientCommand{
		Nom:      req.Nom,
		Prenoms:  req.Prenoms,
		Phone:    req.Phone,
		Email:    req.Email,
		Address:  req.Address,
		City:     req.City,
		Country:  req.Country,
		Coverage: req.Coverage,
		Notes:    req.Notes,
	}
	if req.Sexe != nil {
		sexe := patient.Sexe(*req.Sexe)
		cmd.Sexe = &sexe
	}

	p, err := h.svc.UpdatePatient(c.Request.Context(), id, cmd, caller(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, p)
}

func (h *PatientHandler) Deactivate(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.DeactivatePatient(c.Request.Context(), id, caller(c)); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"deactivated": true})
}

func (h *PatientHandler) List(c *gin.Context) {
	q := &patient.ListPatientsQuery{
		Search:   c.Query("search"),
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}
	if raw := c.Query("status"); raw != "" {
		status := patient.Status(raw)
		q.Status = &status
	}

	paged, err := h.svc.ListPatients(c.Request.Context(), q, caller(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, paged)
}
