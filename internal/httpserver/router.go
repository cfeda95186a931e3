package httpserver

import (
	"context"
	"errors"
	"time"

	"shopbridge/internal/auth"
	"shopbridge/internal/cart"
	"shopbridge/internal/domain"
	"shopbridge/internal/logger"
	"shopbridge/internal/metrics"
	productrepo "shopbridge/internal/repository/product"
	userrepo "shopbridge/internal/repository/user"
	"shopbridge/internal/service/catalog"
	"shopbridge/internal/service/checkout"
	"shopbridge/internal/service/order"
	"shopbridge/internal/service/profile"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CatalogService interface {
	AddProduct(ctx context.Context, caller string, in catalog.AddProductInput) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id int64) (*domain.Product, error)
	Search(ctx context.Context, in productrepo.SearchInput) ([]domain.Product, error)
	Quote(ctx context.Context, lines []catalog.QuoteLine) (*cart.Cart, error)
}

type PricingService interface {
	Markup(ctx context.Context) (int64, error)
	SetMarkup(ctx context.Context, caller string, percent int64) (*domain.Settings, error)
}

type CheckoutService interface {
	CreateSession(ctx context.Context, caller string, in checkout.CreateSessionInput) (*domain.CheckoutSession, error)
	SessionStatusFor(ctx context.Context, caller, id string) (*domain.SessionResult, error)
	Configure(ctx context.Context, caller string, cfg domain.PaymentConfig) (*domain.Settings, error)
	IsConfigured(ctx context.Context) (bool, error)
	PaymentConfig(ctx context.Context, caller string) (*domain.PaymentConfig, error)
}

type OrderService interface {
	CreateOrder(ctx context.Context, caller string, in order.CreateOrderInput) (*domain.Order, bool, error)
	UpdateOrderStatus(ctx context.Context, caller string, id int64, status domain.OrderStatus) (*domain.Order, error)
	UpdatePaymentStatus(ctx context.Context, caller string, id int64, status domain.PaymentStatus) (*domain.Order, error)
	AddFulfillmentNotes(ctx context.Context, caller string, id int64, notes string) (*domain.Order, error)
	MyOrders(ctx context.Context, caller string) ([]domain.Order, error)
	AllOrders(ctx context.Context, caller string, page, pageSize int) (*order.Page, error)
	GetOrder(ctx context.Context, caller string, id int64) (*domain.Order, error)
}

type ProfileService interface {
	Signup(ctx context.Context, in profile.SignupInput) (*domain.UserProfile, error)
	Login(ctx context.Context, email, password string) (*domain.UserProfile, *auth.Token, error)
	Me(ctx context.Context, principal string) (*profile.Me, error)
	SaveProfile(ctx context.Context, principal string, in userrepo.ProfileUpdate) (*domain.UserProfile, error)
	CustomerInfo(ctx context.Context, principal string) (domain.CustomerInfo, error)
}

type RoleService interface {
	Resolve(ctx context.Context, principal string) (domain.Role, error)
	AssignRole(ctx context.Context, caller, target string, role domain.Role) (*domain.RoleAssignment, error)
}

type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// Deps groups the services exposed over HTTP. DB and Metrics may be nil.
type Deps struct {
	Catalog     CatalogService
	Pricing     PricingService
	Checkout    CheckoutService
	Orders      OrderService
	Profiles    ProfileService
	Roles       RoleService
	Tokens      TokenParser
	Metrics     *metrics.Metrics
	DB          Pinger
	CORSOrigins []string
}

func (d Deps) validate() error {
	switch {
	case d.Catalog == nil:
		return errors.New("catalog service required")
	case d.Pricing == nil:
		return errors.New("pricing service required")
	case d.Checkout == nil:
		return errors.New("checkout service required")
	case d.Orders == nil:
		return errors.New("order service required")
	case d.Profiles == nil:
		return errors.New("profile service required")
	case d.Roles == nil:
		return errors.New("role service required")
	case d.Tokens == nil:
		return errors.New("token parser required")
	}
	return nil
}

type handlers struct {
	deps   Deps
	logger *zap.Logger
}

// buildRouter wires routes for the API.
func buildRouter(log *zap.Logger, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(logger.RequestID(), logger.Middleware(log), logger.Recovery(log))
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware())
		router.GET("/metrics", deps.Metrics.Handler())
	}
	router.Use(cors.New(corsConfig(deps.CORSOrigins)))
	router.Use(principalMiddleware(deps.Tokens))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.DB))

	h := &handlers{deps: deps, logger: log.Named("http")}

	router.POST("/auth/signup", h.signup)
	router.POST("/auth/token", h.token)

	me := router.Group("/me", requirePrincipal())
	me.GET("", h.me)
	me.GET("/role", h.myRole)
	me.GET("/orders", h.myOrders)
	me.PUT("/profile", h.saveProfile)

	router.GET("/products", h.listProducts)
	router.GET("/products/search", h.searchProducts)
	router.GET("/products/:id", h.getProduct)
	router.POST("/products", requirePrincipal(), h.addProduct)
	router.POST("/cart/quote", h.quoteCart)

	router.GET("/settings/markup", h.getMarkup)
	router.PUT("/settings/markup", requirePrincipal(), h.setMarkup)
	router.GET("/settings/payment", h.getPayment)
	router.PUT("/settings/payment", requirePrincipal(), h.setPayment)

	sessions := router.Group("/checkout/sessions", requirePrincipal())
	sessions.POST("", h.createSession)
	sessions.GET("/:id", h.sessionStatus)

	orders := router.Group("/orders", requirePrincipal())
	orders.POST("", h.createOrder)
	orders.GET("", h.allOrders)
	orders.GET("/:id", h.getOrder)
	orders.PUT("/:id/status", h.updateOrderStatus)
	orders.PUT("/:id/payment-status", h.updatePaymentStatus)
	orders.PUT("/:id/notes", h.updateNotes)

	router.POST("/admin/roles", requirePrincipal(), h.assignRole)

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", idempotencyHeader, logger.RequestIDHeader},
		ExposeHeaders: []string{logger.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
