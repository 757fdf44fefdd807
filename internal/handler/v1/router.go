package v1

import (
	"net/http"

	"github.com/CHEzRIF21/logiclinic/internal/config"
	"github.com/CHEzRIF21/logiclinic/internal/service"
	"github.com/CHEzRIF21/logiclinic/pkg/auth"
	"github.com/CHEzRIF21/logiclinic/pkg/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RouterDeps struct {
	Config     *config.Config
	JWTManager *auth.JWTManager
	Metrics    *metrics.Collector
	Log        *zap.Logger

	AuthSvc         *service.AuthService
	PatientSvc      *service.PatientService
	StockSvc        *service.StockService
	PrescriptionSvc *service.PrescriptionService
	DispensationSvc *service.DispensationService
	BillingSvc      *service.BillingService
	PricingSvc      *service.PricingService
}

func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(CORSMiddleware(deps.Config.CORS))
	r.Use(MetricsMiddleware(deps.Metrics))
	r.Use(LoggingMiddleware(deps.Log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": deps.Config.App.Version})
	})
	r.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	authH := NewAuthHandler(deps.AuthSvc)
	patientH := NewPatientHandler(deps.PatientSvc)
	pharmacyH := NewPharmacyHandler(deps.StockSvc)
	prescriptionH := NewPrescriptionHandler(deps.PrescriptionSvc)
	dispensationH := NewDispensationHandler(deps.DispensationSvc)
	billingH := NewBillingHandler(deps.BillingSvc)
	pricingH := NewPricingHandler(deps.PricingSvc)

	api := r.Group("/api/v1")

	api.POST("/auth/login", authH.Login)
	api.POST("/auth/refresh", authH.Refresh)

	protected := api.Group("")
	protected.Use(AuthMiddleware(deps.JWTManager))
	{
		protected.POST("/auth/change-password", authH.ChangePassword)

		patients := protected.Group("/patients")
		{
			patients.POST("", patientH.Create)
			patients.GET("", patientH.List)
			patients.GET("/:id", patientH.Get)
			patients.PATCH("/:id", patientH.Update)
			patients.DELETE("/:id", patientH.Deactivate)
		}

		pharmacy := protected.Group("/pharmacy")
		{
			pharmacy.POST("/products", RequireRoles("pharmacien", "admin"), pharmacyH.CreateProduct)
			pharmacy.GET("/products", pharmacyH.ListProducts)
			pharmacy.GET("/products/:id/availability", pharmacyH.CheckAvailability)
			pharmacy.POST("/lots", RequireRoles("pharmacien", "admin"), pharmacyH.ReceiveLot)
			pharmacy.POST("/lots/:id/adjust", RequireRoles("pharmacien", "admin"), pharmacyH.AdjustLot)
			pharmacy.GET("/alerts", pharmacyH.Alerts)
			pharmacy.GET("/movements", pharmacyH.ListMovements)
		}

		prescriptions := protected.Group("/prescriptions")
		{
			prescriptions.POST("", RequireRoles("medecin", "admin"), prescriptionH.Create)
			prescriptions.GET("", prescriptionH.List)
			prescriptions.GET("/active", prescriptionH.ListActive)
			prescriptions.GET("/:id", prescriptionH.Get)
			prescriptions.POST("/:id/cancel", RequireRoles("medecin", "admin"), prescriptionH.Cancel)
			prescriptions.POST("/:id/recompute-status", prescriptionH.RecomputeStatus)
		}

		dispensations := protected.Group("/dispensations")
		dispensations.Use(RequireRoles("pharmacien", "admin"))
		{
			dispensations.POST("", dispensationH.Begin)
			dispensations.GET("", dispensationH.List)
			dispensations.GET("/:id", dispensationH.Get)
			dispensations.POST("/:id/lignes", dispensationH.AddLine)
			dispensations.POST("/:id/finalize", dispensationH.Finalize)
			dispensations.POST("/:id/validate", dispensationH.Validate)
			dispensations.POST("/:id/cancel", dispensationH.Cancel)
		}

		billing := protected.Group("/billing")
		{
			billing.GET("/tickets", billingH.ListPendingTickets)
			billing.POST("/invoices", RequireRoles("caissier", "admin"), billingH.CreateInvoice)
			billing.GET("/invoices/:id", billingH.GetInvoice)
			billing.POST("/invoices/:id/payments", RequireRoles("caissier", "admin"), billingH.RecordPayment)
			billing.POST("/caisse/entries", RequireRoles("caissier", "admin"), billingH.AddCashEntry)
			billing.GET("/caisse/statistics", billingH.CashStatistics)
		}

		pricing := protected.Group("/pricing")
		{
			pricing.POST("/services", RequireRoles("admin"), pricingH.CreateService)
			pricing.GET("/services", pricingH.ListServices)
			pricing.GET("/services/:id/resolve", pricingH.Resolve)
			pricing.PUT("/clinic", RequireRoles("admin"), pricingH.SetClinicPricing)
			pricing.GET("/clinic", pricingH.ListClinicPricing)
		}
	}

	return r
}
