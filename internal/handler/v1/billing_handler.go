package v1

import (
	"time"

	"github.com/CHEzRIF21/logiclinic/internal/domain/billing"
	"github.com/CHEzRIF21/logiclinic/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BillingHandler struct {
	svc *service.BillingService
}

func NewBillingHandler(svc *service.BillingService) *BillingHandler {
	return &BillingHandler{svc: svc}
}

func (h *BillingHandler) ListPendingTickets(c *gin.Context) {
	var patientID *uuid.UUID
	if raw := c.Query("patient_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, 400, "invalid patient_id: must be a valid UUID")
			return
		}
		patientID = &id
	}

	tickets, err := h.svc.ListPendingTickets(c.Request.Context(), patientID, caller(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, tickets)
}

type createInvoiceRequest struct {
	PatientID uuid.UUID   `json:"patient_id" binding:"required"`
	TicketIDs []uuid.UUID `json:"ticket_ids" binding:"required"`
}

func (h *BillingHandler) CreateInvoice(c *gin.Context) {
	var req createInvoiceRequest
	if !bindJSON(c, &req) {
		return
	}

	inv, err := h.svc.CreateInvoice(c.Request.Context(), req.PatientID, req.TicketIDs, caller(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, inv)
}

func (h *BillingHandler) GetInvoice(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	inv, err := h.svc.GetInvoice(c.Request.Context(), id, caller(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, inv)
}

type recordPaymentRequest struct {
	Montant int64  `json:"montant" binding:"required"`
	Methode string `json:"methode" binding:"required"`
}

func (h *BillingHandler) RecordPayment(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req recordPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	inv, err := h.svc.RecordPayment(c.Request.Context(), id, req.Montant, billing.PaymentMethod(req.Methode), caller(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, inv)
}

type cashEntryRequest struct {
	Type        string `json:"type" binding:"required"`
	Montant     int64  `json:"montant" binding:"required"`
	Description string `json:"description"`
}

func (h *BillingHandler) AddCashEntry(c *gin.Context) {
	var req cashEntryRequest
	if !bindJSON(c, &req) {
		return
	}

	entry, err := h.svc.AddCashEntry(c.Request.Context(), billing.CashEntryType(req.Type), req.Montant, req.Description, caller(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, entry)
}

func (h *BillingHandler) CashStatistics(c *gin.Context) {
	now := time.Now()
	from := now.AddDate(0, 0, -30)
	to := now

	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondError(c, 400, "invalid from: expected YYYY-MM-DD")
			return
		}
		from = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondError(c, 400, "invalid to: expected YYYY-MM-DD")
			return
		}
		// Inclusive end date
		to = t.AddDate(0, 0, 1)
	}

	stats, err := h.svc.CashStatistics(c.Request.Context(), from, to, caller(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, stats)
}
