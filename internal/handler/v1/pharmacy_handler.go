package v1

import (
	"time"

	"github.com/CHEzRIF21/logiclinic/internal/domain/pharmacy"
	"github.com/CHEzRIF21/logiclinic/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PharmacyHandler struct {
	svc *service.StockService
}

func NewPharmacyHandler(svc *service.StockService) *PharmacyHandler {
	return &PharmacyHandler{svc: svc}
}

type createProductRequest struct {
	Code     string `json:"code"`
	Nom      string `json:"nom" binding:"required"`
	Dosage   string `json:"dosage"`
	Forme    string `json:"forme"`
	Unite    string `json:"unite"`
	MinStock int    `json:"min_stock"`
}

func (h *PharmacyHandler) CreateProduct(c *gin.Context) {
	var req createProductRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.svc.CreateProduct(c.Request.Context(), &pharmacy.Product{
		Code:     req.Code,
		Nom:      req.Nom,
		Dosage:   req.Dosage,
		Forme:    req.Forme,
		Unite:    req.Unite,
		MinStock: req.MinStock,
	}, caller(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, p)
}

func (h *PharmacyHandler) ListProducts(c *gin.Context) {
	products, err := h.svc.ListProducts(c.Request.Context(), c.Query("search"), caller(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, products)
}

type receiveLotRequest struct {
	MedicamentID   uuid.UUID `json:"medicament_id" binding:"required"`
	NumeroLot      string    `json:"numero_lot" binding:"required"`
	Quantite       int       `json:"quantite" binding:"required"`
	PrixUnitaire   int64     `json:"prix_unitaire"`
	DateExpiration time.Time `json:"date_expiration" binding:"required"`
	Source         string    `json:"source"`
}

func (h *PharmacyHandler) ReceiveLot(c *gin.Context) {
	var req receiveLotRequest
	if !bindJSON(c, &req) {
		return
	}

	lot, err := h.svc.ReceiveLot(c.Request.Context(), &pharmacy.CreateLotCommand{
		MedicamentID:   req.MedicamentID,
		NumeroLot:      req.NumeroLot,
		Quantite:       req.Quantite,
		PrixUnitaire:   req.PrixUnitaire,
		DateExpiration: req.DateExpiration,
		Source:         req.Source,
	}, caller(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, lot)
}

func (h *PharmacyHandler) CheckAvailability(c *gin.Context) {
	medicamentID, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	qty := parseQueryInt(c, "quantite", 0)

	check, err := h.svc.CheckAvailability(c.Request.Context(), medicamentID, qty, caller(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, check)
}

type adjustLotRequest struct {
	Delta int    `json:"delta" binding:"required"`
	Motif string `json:"motif" binding:"required"`
}

func (h *PharmacyHandler) AdjustLot(c *gin.Context) {
	lotID, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req adjustLotRequest
	if !bindJSON(c, &req) {
		return
	}

	lot, err := h.svc.AdjustLot(c.Request.Context(), lotID, req.Delta, req.Motif, caller(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, lot)
}

func (h *PharmacyHandler) Alerts(c *gin.Context) {
	alerts, err := h.svc.Alerts(c.Request.Context(), caller(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, alerts)
}

func (h *PharmacyHandler) ListMovements(c *gin.Context) {
	var lotID *uuid.UUID
	if raw := c.Query("lot_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, 400, "invalid lot_id: must be a valid UUID")
			return
		}
		lotID = &id
	}

	movements, err := h.svc.ListMovements(c.Request.Context(), lotID, parseQueryInt(c, "limit", 100), caller(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, movements)
}
