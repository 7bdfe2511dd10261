package api

import (
	"context"
	"net/http"

	"github.com/kushch-a/car-service-crm/internal/database"
	"github.com/kushch-a/car-service-crm/internal/handler"
	"github.com/kushch-a/car-service-crm/internal/middleware"
	"github.com/kushch-a/car-service-crm/internal/model"
	"github.com/kushch-a/car-service-crm/internal/repository"
	"github.com/kushch-a/car-service-crm/internal/service"
	"github.com/kushch-a/car-service-crm/pkg/jwt"
)

// Config holds the collaborators the router is assembled from
type Config struct {
	DB             database.Database
	JWT            *jwt.Service
	RateLimiter    *middleware.RateLimiter
	Idempotency    *middleware.IdempotencyGuard
	AllowedOrigins []string

	// BcryptCost overrides the password hashing cost; zero keeps the default
	BcryptCost int
}

// Router is the fully assembled HTTP entry point of the API
type Router struct {
	handler http.Handler
	auth    *service.AuthService
}

// NewRouter wires repositories, services and handlers, registers every route
// with its access rules and wraps the mux in the request pipeline:
//
//	RequestID → Logger → Recovery → CORS → RateLimit → mux
//	  → [Require(roles)] → [Idempotency] → handler
func NewRouter(cfg Config) *Router {
	db := cfg.DB

	// Repositories
	userRepo := repository.NewUserRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	carRepo := repository.NewCarRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	itemRepo := repository.NewInvoiceItemRepository(db)
	recordRepo := repository.NewServiceRecordRepository(db)

	// Services
	authService := service.NewAuthService(service.AuthServiceConfig{
		UserRepo:   userRepo,
		Signer:     cfg.JWT,
		BcryptCost: cfg.BcryptCost,
	})
	userService := service.NewUserService(service.UserServiceConfig{UserRepo: userRepo})
	customerService := service.NewCustomerService(service.CustomerServiceConfig{CustomerRepo: customerRepo})
	carService := service.NewCarService(service.CarServiceConfig{
		CarRepo:      carRepo,
		CustomerRepo: customerRepo,
	})
	catalogService := service.NewCatalogService(service.CatalogServiceConfig{CatalogRepo: catalogRepo})
	invoiceService := service.NewInvoiceService(service.InvoiceServiceConfig{
		InvoiceRepo: invoiceRepo,
		CarRepo:     carRepo,
	})
	itemService := service.NewInvoiceItemService(service.InvoiceItemServiceConfig{
		ItemRepo:    itemRepo,
		InvoiceRepo: invoiceRepo,
	})
	recordService := service.NewServiceRecordService(service.ServiceRecordServiceConfig{
		RecordRepo: recordRepo,
		BillingTx:  billingTx(db),
	})

	// Handlers
	healthHandler := handler.NewHealthHandler(db)
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	customerHandler := handler.NewCustomerHandler(customerService)
	carHandler := handler.NewCarHandler(carService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	invoiceHandler := handler.NewInvoiceHandler(handler.InvoiceHandlerConfig{
		InvoiceService: invoiceService,
		ItemService:    itemService,
	})
	recordHandler := handler.NewServiceRecordHandler(recordService)

	gate := middleware.NewAuthGate(cfg.JWT, userRepo)
	authenticated := gate.Require()
	adminOnly := gate.Require(model.UserRoleAdmin)
	staff := gate.Require(model.UserRoleAdmin, model.UserRoleManager)
	anyRole := gate.Require(model.UserRoleAdmin, model.UserRoleManager, model.UserRoleMaster)
	keyRequired := middleware.Idempotency(cfg.Idempotency, middleware.IdempotencyRequired)
	keyOptional := middleware.Idempotency(cfg.Idempotency, middleware.IdempotencyOptional)

	mux := http.NewServeMux()
	route := func(pattern string, h handler.Func, mws ...middleware.Middleware) {
		mux.Handle(pattern, middleware.Chain(h, mws...))
	}

	// Public endpoints
	route("GET /{$}", healthHandler.Root)
	route("GET /health", healthHandler.Health)
	route("POST /auth/login", authHandler.Login)

	// Staff accounts
	route("POST /auth/register", authHandler.Register, adminOnly, keyRequired)
	route("POST /users", authHandler.Register, adminOnly, keyRequired)
	route("GET /users", userHandler.List, adminOnly)
	route("GET /users/me", userHandler.Me, authenticated)
	route("GET /users/{id}", userHandler.Get, adminOnly)
	route("PATCH /users/{id}", userHandler.Update, adminOnly, keyOptional)
	route("DELETE /users/{id}", userHandler.Delete, adminOnly)

	// Customers
	route("GET /customers", customerHandler.List, authenticated)
	route("POST /customers", customerHandler.Create, staff, keyRequired)
	route("GET /customers/{id}", customerHandler.Get, authenticated)
	route("PUT /customers/{id}", customerHandler.Replace, staff, keyOptional)
	route("PATCH /customers/{id}", customerHandler.Patch, staff, keyOptional)
	route("DELETE /customers/{id}", customerHandler.Delete, staff, keyOptional)

	// Cars
	route("GET /cars", carHandler.List, authenticated)
	route("POST /cars", carHandler.Create, staff, keyRequired)
	route("GET /cars/by-vin/{vin}", carHandler.GetByVIN, authenticated)
	route("GET /cars/{id}", carHandler.Get, authenticated)
	route("PUT /cars/{id}", carHandler.Update, staff, keyOptional)
	route("DELETE /cars/{id}", carHandler.Delete, staff, keyOptional)

	// Service catalog
	route("GET /services", catalogHandler.List, authenticated)
	route("POST /services", catalogHandler.Create, staff, keyRequired)
	route("GET /services/{id}", catalogHandler.Get, authenticated)
	route("PUT /services/{id}", catalogHandler.Replace, staff, keyOptional)
	route("PATCH /services/{id}", catalogHandler.Patch, staff, keyOptional)
	route("DELETE /services/{id}", catalogHandler.Delete, staff, keyOptional)

	// Invoices (masters are narrowed to their own invoices by the service)
	route("GET /invoices", invoiceHandler.List, authenticated)
	route("POST /invoices", invoiceHandler.Create, staff, keyRequired)
	route("GET /invoices/{id}", invoiceHandler.Get, authenticated)
	route("PATCH /invoices/{id}", invoiceHandler.Patch, anyRole, keyOptional)
	route("DELETE /invoices/{id}", invoiceHandler.Delete, adminOnly)

	// Invoice items
	route("POST /invoice-items", invoiceHandler.CreateItem, staff, keyRequired)
	route("GET /invoice-items/by-invoice/{id}", invoiceHandler.ListItems, authenticated)
	route("GET /invoice-items/{id}", invoiceHandler.GetItem, authenticated)
	route("PATCH /invoice-items/{id}", invoiceHandler.PatchItem, staff, keyOptional)
	route("DELETE /invoice-items/{id}", invoiceHandler.DeleteItem, staff)

	// Service records
	route("GET /service-records", recordHandler.List, authenticated)
	route("POST /service-records", recordHandler.Create, anyRole, keyRequired)
	route("GET /service-records/{id}", recordHandler.Get, authenticated)
	route("PUT /service-records/{id}", recordHandler.Update, staff)
	route("DELETE /service-records/{id}", recordHandler.Delete, staff)
	route("POST /service-records/{id}/create-invoice", recordHandler.CreateInvoice, staff, keyRequired)

	// Apply global middleware
	wrapped := middleware.Chain(
		unmatched(mux),
		middleware.RequestID,
		middleware.Logger,
		middleware.Recovery,
		middleware.CORS(cfg.AllowedOrigins),
		middleware.RateLimit(cfg.RateLimiter),
	)

	return &Router{handler: wrapped, auth: authService}
}

// ServeHTTP implements http.Handler
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt.handler.ServeHTTP(w, r)
}

// Auth returns the auth service the router was built with
func (rt *Router) Auth() *service.AuthService {
	return rt.auth
}

// billingTx binds every billing repository to one transaction
func billingTx(db database.Database) service.BillingTx {
	return func(ctx context.Context, fn func(r service.BillingRepos) error) error {
		return database.WithTx(ctx, db, func(q database.Querier) error {
			return fn(service.BillingRepos{
				Records:  repository.NewServiceRecordRepository(q),
				Invoices: repository.NewInvoiceRepository(q),
				Items:    repository.NewInvoiceItemRepository(q),
				Cars:     repository.NewCarRepository(q),
				Catalog:  repository.NewCatalogRepository(q),
			})
		})
	}
}

// unmatched renders the error envelope for requests no route accepts. The
// mux's own 404 and 405 replies are plain text.
func unmatched(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, pattern := mux.Handler(r)
		if pattern != "" {
			mux.ServeHTTP(w, r)
			return
		}

		probe := &statusProbe{header: make(http.Header)}
		h.ServeHTTP(probe, r)
		if probe.status == http.StatusMethodNotAllowed {
			allow := probe.header.Get("Allow")
			w.Header().Set("Allow", allow)
			middleware.WriteError(w, r, model.NewMethodNotAllowedError(allow))
			return
		}
		handler.NotFound(w, r)
	})
}

// statusProbe records the status and headers of a reply and drops its body
type statusProbe struct {
	header http.Header
	status int
}

func (p *statusProbe) Header() http.Header { return p.header }

func (p *statusProbe) WriteHeader(status int) {
	if p.status == 0 {
		p.status = status
	}
}

func (p *statusProbe) Write(b []byte) (int, error) {
	if p.status == 0 {
		p.status = http.StatusOK
	}
	return len(b), nil
}
