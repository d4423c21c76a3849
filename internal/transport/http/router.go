package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	CORSOrigins    []string
	RequestTimeout time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter wires every route behind the shared middleware chain. Public
// routes are rate limited per IP; management routes require a Bearer token.
func NewRouter(bookingsH *BookingsHandler, authH *AuthHandler, log *slog.Logger, cfg RouterConfig) *gin.Engine {
	if log == nil {
		log = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(log.With(slog.String("component", "http"))))
	r.Use(RequestTimeout(cfg.RequestTimeout))

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"mensagem": "API do Agendamento está funcionando!"})
	})

	public := r.Group("/api")
	public.Use(RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	{
		public.GET("/servicos", bookingsH.ListServices)
		public.GET("/agendamentos/ocupados", bookingsH.OccupiedSlots)
		public.GET("/horarios-indisponiveis", bookingsH.OccupiedSlots)
		public.POST("/agendamentos", bookingsH.Create)
		public.POST("/login", authH.Login)
		public.POST("/setup/admin", authH.SetupAdmin)
	}

	protected := r.Group("/api")
	protected.Use(RequireAuth(authH.svc))
	{
		protected.GET("/agendamentos", bookingsH.List)
		protected.GET("/agendamentos/:id", bookingsH.Get)
		protected.PATCH("/agendamentos/:id", bookingsH.Update)
		protected.DELETE("/agendamentos/:id", bookingsH.Delete)
		protected.GET("/agendamentos/:id/aprovar", bookingsH.Approve)
	}

	return r
}
