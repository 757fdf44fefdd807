package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/CHEzRIF21/logiclinic/internal/domain/billing"
	"github.com/CHEzRIF21/logiclinic/internal/domain/dispensation"
	"github.com/CHEzRIF21/logiclinic/internal/domain/patient"
	"github.com/CHEzRIF21/logiclinic/internal/domain/pharmacy"
	"github.com/CHEzRIF21/logiclinic/internal/domain/prescription"
	"github.com/CHEzRIF21/logiclinic/internal/domain/pricing"
	"github.com/CHEzRIF21/logiclinic/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type APIResponse[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

type ValidationErrorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, APIResponse[any]{Data: data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, APIResponse[any]{Data: data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

func respondServiceError(c *gin.Context, err error) {
	var validErr *service.ValidationError
	if errors.As(err, &validErr) {
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{
			Error:  "validation failed",
			Fields: validErr.Fields,
		})
		return
	}

	var ruleErr *dispensation.BusinessRuleError
	if errors.As(err, &ruleErr) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error: ruleErr.Message,
			Code:  ruleErr.Code,
		})
		return
	}

	switch {
	case errors.Is(err, patient.ErrPatientNotFound),
		errors.Is(err, prescription.ErrPrescriptionNotFound),
		errors.Is(err, prescription.ErrLineNotFound),
		errors.Is(err, pharmacy.ErrProductNotFound),
		errors.Is(err, pharmacy.ErrLotNotFound),
		errors.Is(err, dispensation.ErrDispensationNotFound),
		errors.Is(err, billing.ErrTicketNotFound),
		errors.Is(err, billing.ErrInvoiceNotFound),
		errors.Is(err, pricing.ErrServiceNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})

	case errors.Is(err, patient.ErrPatientAlreadyExists),
		errors.Is(err, pharmacy.ErrLotAlreadyExists),
		errors.Is(err, prescription.ErrDuplicateNumber),
		errors.Is(err, billing.ErrDuplicateNumero):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})

	case errors.Is(err, pharmacy.ErrInsufficientStock):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error: err.Error(),
			Code:  "INSUFFICIENT_STOCK",
		})

	case errors.Is(err, pharmacy.ErrLotExpired):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error: err.Error(),
			Code:  "LOT_EXPIRED",
		})

	case errors.Is(err, patient.ErrPatientDeceased),
		errors.Is(err, patient.ErrInvalidSexe),
		errors.Is(err, patient.ErrInvalidCoverage),
		errors.Is(err, prescription.ErrAlreadyCancelled),
		errors.Is(err, prescription.ErrInvalidQuantity),
		errors.Is(err, pharmacy.ErrInvalidQuantity),
		errors.Is(err, dispensation.ErrInvalidQuantity),
		errors.Is(err, dispensation.ErrNoLines),
		errors.Is(err, billing.ErrInvalidAmount),
		errors.Is(err, billing.ErrNoTickets),
		errors.Is(err, billing.ErrOverpayment),
		errors.Is(err, billing.ErrInvoiceCancelled),
		errors.Is(err, pricing.ErrServiceInactive),
		errors.Is(err, pricing.ErrInvalidTariff):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})

	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "access denied"})

	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})

	case errors.Is(err, service.ErrAccountLocked):
		c.JSON(http.StatusTooManyRequests, ErrorResponse{
			Error: "account temporarily locked",
			Code:  "ACCOUNT_LOCKED",
		})

	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})

	}
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request: " + err.Error()})
		return false
	}

	return true
}

func parseUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	raw := c.Param(param)
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + param + ": must be a valid UUID"})
		return uuid.Nil, false
	}
	return id, true
}

func parseQueryInt(c *gin.Context, key string, defaultVal int) int {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return defaultVal
}

// caller rebuilds the service-layer identity from the claims the auth
// middleware stored on the context.
func caller(c *gin.Context) service.Caller {
	return service.Caller{
		UserID:   c.MustGet(ctxUserID).(uuid.UUID),
		ClinicID: c.MustGet(ctxClinicID).(uuid.UUID),
		Role:     c.GetString(ctxRole),
		IP:       c.ClientIP(),
	}
}
