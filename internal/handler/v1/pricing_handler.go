package v1

import (
	"github.com/CHEzRIF21/logiclinic/internal/domain/pricing"
	"github.com/CHEzRIF21/logiclinic/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PricingHandler struct {
	svc *service.PricingService
}

func NewPricingHandler(svc *service.PricingService) *PricingHandler {
	return &PricingHandler{svc: svc}
}

type createServiceRequest struct {
	Code        string `json:"code" binding:"required"`
	Nom         string `json:"nom" binding:"required"`
	TypeService string `json:"type_service" binding:"required"`
	TarifDefaut int64  `json:"tarif_defaut"`
	Unite       string `json:"unite"`
}

func (h *PricingHandler) CreateService(c *gin.Context) {
	var req createServiceRequest
	if !bindJSON(c, &req) {
		return
	}

	svc, err := h.svc.CreateService(c.Request.Context(), &pricing.BillableService{
		Code:        req.Code,
		Nom:         req.Nom,
		TypeService: req.TypeService,
		TarifDefaut: req.TarifDefaut,
		Unite:       req.Unite,
	}, caller(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, svc)
}

func (h *PricingHandler) ListServices(c *gin.Context) {
	services, err := h.svc.ListServices(c.Request.Context(), c.Query("type"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, services)
}

func (h *PricingHandler) Resolve(c *gin.Context) {
	serviceID, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	resolved, err := h.svc.Resolve(c.Request.Context(), caller(c).ClinicID, serviceID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, resolved)
}

type setPricingRequest struct {
	ServiceID uuid.UUID `json:"service_id" binding:"required"`
	TarifBase int64     `json:"tarif_base"`
	Unite     string    `json:"unite"`
	Active    bool      `json:"active"`
}

func (h *PricingHandler) SetClinicPricing(c *gin.Context) {
	var req setPricingRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.svc.SetClinicPricing(c.Request.Context(), &pricing.UpsertPricingCommand{
		ServiceID: req.ServiceID,
		TarifBase: req.TarifBase,
		Unite:     req.Unite,
		Active:    req.Active,
	}, caller(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, p)
}

func (h *PricingHandler) ListClinicPricing(c *gin.Context) {
	rows, err := h.svc.ListClinicPricing(c.Request.Context(), caller(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, rows)
}
