package http

import (
	"context"
	"net/http"
	"time"

	"waitlist_funnel/internal/infrastructure"
	"waitlist_funnel/internal/usecases"

	"github.com/gin-gonic/gin"
)

// ChannelReporter reports the state of a messaging channel.
type ChannelReporter interface {
	Status() infrastructure.ChannelStatus
}

// DevicePairing is a channel linked to a device by scanning a QR code.
type DevicePairing interface {
	QRPNG(size int) ([]byte, error)
	Logout(ctx context.Context) error
}

type Handler struct {
	auth        *usecases.AuthUsecase
	dashboard   *usecases.DashboardUsecase
	chats       *usecases.ChatRegistry
	submissions *usecases.SubmissionUsecase
	channels    []ChannelReporter
	pairing     DevicePairing
	now         func() time.Time
}

func NewHandler(auth *usecases.AuthUsecase, dashboard *usecases.DashboardUsecase, chats *usecases.ChatRegistry, submissions *usecases.SubmissionUsecase) *Handler {
	return &Handler{
		auth:        auth,
		dashboard:   dashboard,
		chats:       chats,
		submissions: submissions,
		now:         time.Now,
	}
}

// WithChannel adds a messaging channel to the dashboard status list.
func (h *Handler) WithChannel(ch ChannelReporter) *Handler {
	h.channels = append(h.channels, ch)
	return h
}

// WithPairing sets the channel whose pairing QR the dashboard shows.
func (h *Handler) WithPairing(p DevicePairing) *Handler {
	h.pairing = p
	return h
}

func SetupRoutes(r *gin.Engine, h *Handler, middleware *Middleware) {
	r.Use(RequestLogger())
	r.Use(SecurityHeaders())
	r.Use(RequestSizeLimiter(1 << 20))
	r.Use(middleware.CORSMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public Routes
	public := r.Group("/api")
	{
		public.POST("/waitlist", middleware.RateLimitPerClient(), h.JoinWaitlist)

		chat := public.Group("/chat")
		chat.GET("/faqs", h.ListFAQs)
		chat.POST("/sessions", middleware.RateLimitPerClient(), h.OpenChat)
		chat.GET("/sessions/:id", h.GetChat)
		chat.POST("/sessions/:id/messages", middleware.RateLimitPerClient(), h.SendChatMessage)
		chat.POST("/sessions/:id/faq", middleware.RateLimitPerClient(), h.SelectChatFAQ)
		chat.DELETE("/sessions/:id", h.CloseChat)
	}

	// Auth Routes
	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/login", h.Login)
		authGroup.POST("/logout", middleware.AuthRequired(), h.Logout)
	}

	// Protected Dashboard Routes
	dash := r.Group("/api/dashboard")
	dash.Use(middleware.AuthRequired())
	{
		dash.GET("", h.GetDashboard)
		dash.POST("/reload", h.ReloadDashboard)
		dash.PUT("/filter", h.SetFilter)
		dash.POST("/page/:op", h.Navigate)
		dash.PUT("/page", h.GoToPage)
		dash.POST("/selection/:id/toggle", h.ToggleSelection)
		dash.POST("/selection/page", h.ToggleAllOnPage)
		dash.DELETE("/selection", h.ClearSelection)
		dash.GET("/export.csv", h.ExportCSV)
		dash.GET("/emails", h.EmailList)
		dash.GET("/mailto", h.BulkMail)
		dash.GET("/channels", h.ChannelStatus)
		dash.GET("/channels/whatsapp/qr", h.WhatsAppQR)
		dash.POST("/channels/whatsapp/logout", h.WhatsAppLogout)
	}
}

func errorJSON(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": message, "code": code})
}
