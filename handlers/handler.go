package handlers

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/awmbw/live-mart/internal/auth"
	"github.com/awmbw/live-mart/internal/feedback"
	"github.com/awmbw/live-mart/internal/geo"
	"github.com/awmbw/live-mart/internal/notify"
	"github.com/awmbw/live-mart/internal/orders"
	"github.com/awmbw/live-mart/internal/otp"
	"github.com/awmbw/live-mart/internal/payments"
	"github.com/awmbw/live-mart/internal/products"
	"github.com/awmbw/live-mart/internal/search"
	"github.com/awmbw/live-mart/internal/stores/kafka"
	"github.com/awmbw/live-mart/internal/users"
	"github.com/awmbw/live-mart/middleware"
)

type Handler struct {
	u   *users.Conf
	p   *products.Conf
	o   *orders.Conf
	s   *search.Conf
	f   *feedback.Conf
	otp *otp.Conf

	n        *notify.Conf
	pay      *payments.Conf
	k        *kafka.Conf // nil when no broker is configured
	geocoder *geo.Geocoder

	keys     *auth.Keys
	validate *validator.Validate
}

// Deps bundles everything the API needs.
type Deps struct {
	Users    *users.Conf
	Products *products.Conf
	Orders   *orders.Conf
	Search   *search.Conf
	Feedback *feedback.Conf
	OTP      *otp.Conf
	Notify   *notify.Conf
	Payments *payments.Conf
	Kafka    *kafka.Conf
	Geocoder *geo.Geocoder
	Keys     *auth.Keys
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		u:        d.Users,
		p:        d.Products,
		o:        d.Orders,
		s:        d.Search,
		f:        d.Feedback,
		otp:      d.OTP,
		n:        d.Notify,
		pay:      d.Payments,
		k:        d.Kafka,
		geocoder: d.Geocoder,
		keys:     d.Keys,
		validate: validator.New(),
	}
}

// API builds the gin engine with the full route table.
func API(d Deps) *gin.Engine {
	r := gin.New()
	mode := os.Getenv("GIN_MODE")
	if mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	m, err := middleware.NewMid(d.Keys)
	if err != nil {
		panic(err)
	}
	h := NewHandler(d)

	r.Use(middleware.Logger(), gin.Recovery())
	r.GET("/ping", HealthCheck)

	r.POST("/register", h.Register)
	r.POST("/verify-otp", h.VerifyOTP)
	r.POST("/resend-otp", h.ResendOTP)
	r.POST("/login", h.Login)
	r.POST("/social-login", h.SocialLogin)

	productGroup := r.Group("/products")
	{
		productGroup.GET("", h.ListProducts)
		productGroup.GET("/:id", h.GetProduct)
		productGroup.GET("/categories/all", h.ListCategories)
		productGroup.GET("/retailer/:retailerId", h.ProductsByRetailer)
		productGroup.GET("/wholesaler/:wholesalerId", h.ProductsByWholesaler)

		sellers := productGroup.Group("")
		sellers.Use(m.Authentication())
		sellers.POST("", m.Authorize(h.CreateProduct, auth.RoleRetailer, auth.RoleWholesaler))
		sellers.PUT("/:id", m.Authorize(h.UpdateProduct, auth.RoleRetailer, auth.RoleWholesaler))
		sellers.DELETE("/:id", m.Authorize(h.DeleteProduct, auth.RoleRetailer, auth.RoleWholesaler))
	}

	orderGroup := r.Group("/orders")
	{
		orderGroup.POST("/webhook", h.Webhook)

		authed := orderGroup.Group("")
		authed.Use(m.Authentication())
		authed.POST("", m.Authorize(h.CreateOrder, auth.RoleCustomer))
		authed.GET("", h.ListOrders)
		authed.GET("/:id", h.GetOrder)
		authed.PUT("/:id/status", m.Authorize(h.UpdateOrderStatus, auth.RoleRetailer, auth.RoleWholesaler))
		authed.POST("/retailer-to-wholesaler", m.Authorize(h.CreateWholesaleOrder, auth.RoleRetailer))
	}

	searchGroup := r.Group("/search")
	{
		searchGroup.GET("/products", h.SearchProducts)
		searchGroup.GET("/shops", m.Authentication(), h.NearbyShops)
	}

	feedbackGroup := r.Group("/feedback")
	{
		feedbackGroup.POST("", m.Authentication(), h.CreateFeedback)
		feedbackGroup.GET("/product/:id", h.FeedbackByProduct)
	}

	userGroup := r.Group("/users")
	userGroup.Use(m.Authentication())
	{
		userGroup.GET("/profile", h.GetProfile)
		userGroup.PUT("/profile", h.UpdateProfile)
		userGroup.GET("/purchase-history", m.Authorize(h.PurchaseHistory, auth.RoleCustomer))
		userGroup.GET("/customers/:customerId/history", m.Authorize(h.CustomerHistory, auth.RoleRetailer))
		userGroup.GET("/retailers/:retailerId/history", m.Authorize(h.RetailerHistory, auth.RoleWholesaler))
	}

	return r
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// claimsOf pulls the authenticated principal out of the request context.
func claimsOf(c *gin.Context) (auth.Claims, bool) {
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	return claims, ok
}
