package httpserver

import (
	"context"
	"log"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"loyalty-program/internal/domain"
	customersvc "loyalty-program/internal/service/customer"
	ledgersvc "loyalty-program/internal/service/ledger"
)

// CustomerService is the customer-management surface the router depends on.
type CustomerService interface {
	Register(ctx context.Context, in customersvc.RegisterInput) (*domain.Customer, error)
	SelfRegister(ctx context.Context, in customersvc.SelfRegisterInput) (*domain.Customer, error)
	Update(ctx context.Context, id string, in customersvc.RegisterInput) (*domain.Customer, error)
	List(ctx context.Context) ([]domain.Customer, error)
	Delete(ctx context.Context, id string) error
	Eligible(c domain.Customer) bool
}

// LedgerService is the reward-ledger surface the router depends on.
type LedgerService interface {
	Accrue(ctx context.Context, customerID string, in ledgersvc.AccrueInput) (*domain.Purchase, *domain.Customer, error)
	Amend(ctx context.Context, purchaseID string, newAmountCents int64) (*domain.Purchase, error)
	ClearReward(ctx context.Context, purchaseID string) (*domain.Purchase, error)
	Purchases(ctx context.Context, customerID string) ([]domain.Purchase, error)
	Ledger(ctx context.Context, customerID string) (*domain.Customer, []domain.Purchase, error)
}

// Deps bundles the services handlers are built on.
type Deps struct {
	CustomerSvc CustomerService
	LedgerSvc   LedgerService
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps, opts Options) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	router.Use(corsMiddleware(opts.CORSAllowedOrigins))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	router.POST("/customers", createCustomerHandler(deps.CustomerSvc))
	router.GET("/customers", listCustomersHandler(deps.CustomerSvc))
	router.GET("/customers/:id", getCustomerHandler(deps.CustomerSvc, deps.LedgerSvc))
	router.PATCH("/customers/:id", updateCustomerHandler(deps.CustomerSvc))
	router.DELETE("/customers/:id", deleteCustomerHandler(deps.CustomerSvc))

	router.POST("/customers/:id/purchases", accrueHandler(deps.CustomerSvc, deps.LedgerSvc))
	router.GET("/customers/:id/purchases", listPurchasesHandler(deps.LedgerSvc))
	router.PATCH("/purchases/:id", amendHandler(deps.LedgerSvc))
	router.POST("/purchases/:id/clear-reward", clearRewardHandler(deps.LedgerSvc))

	router.GET("/registration/qr.png", registrationQRHandler(opts.PublicBaseURL))
	router.POST("/registration", selfRegisterHandler(deps.CustomerSvc))

	return router
}

func corsMiddleware(allowedOrigins string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	if allowedOrigins == "" || allowedOrigins == "*" {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = strings.Split(allowedOrigins, ",")
	}
	return cors.New(cfg)
}
