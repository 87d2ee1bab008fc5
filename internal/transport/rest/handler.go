package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"barberapp/config"
	"barberapp/internal/service"
)

// TokenParser validates bearer tokens.
type TokenParser interface {
	Parse(token string) (uuid.UUID, string, error)
}

// HealthChecker reports whether a backing store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	services *service.Services
	tokens   TokenParser
	ws       gin.HandlerFunc
	health   HealthChecker
	logger   *zap.Logger
	config   *config.Config
}

// NewHandler wires the REST handlers. ws serves the push endpoint and may be
// nil; health may be nil as well, in which case /health always reports ok.
func NewHandler(services *service.Services, tokens TokenParser, ws gin.HandlerFunc, health HealthChecker, logger *zap.Logger, config *config.Config) *Handler {
	return &Handler{
		services: services,
		tokens:   tokens,
		ws:       ws,
		health:   health,
		logger:   logger,
		config:   config,
	}
}

func (h *Handler) InitRoutes(router *gin.Engine) {
	router.Use(h.loggerMiddleware())

	router.Use(h.metricsMiddleware())

	router.Use(h.errorMiddleware())

	router.Use(h.corsMiddleware())

	api := router.Group(h.config.HTTP.BasePath)
	{
		barbers := api.Group("/barbers")
		{
			barbers.GET("/all", h.getBarbers)
			barbers.GET("/:id", h.getBarberByID)

			me := barbers.Group("/me", h.authMiddleware(), h.barberMiddleware())
			{
				me.GET("", h.getMyBarberProfile)
				me.PUT("/working-hours", h.updateWorkingHours)
				me.PUT("/services", h.updateServices)
				me.POST("/photo", h.uploadBarberPhoto)
			}
		}

		appointments := api.Group("/appointments")
		{
			appointments.GET("/availability", h.getAvailability)

			auth := appointments.Group("", h.authMiddleware())
			{
				auth.POST("", h.createAppointment)
				auth.GET("/user", h.getUserAppointments)
				auth.GET("/barber", h.barberMiddleware(), h.getBarberAppointments)
				auth.PATCH("/:id/status", h.updateAppointmentStatus)
			}
		}

		h.initChatRoutes(api)

		users := api.Group("/users", h.authMiddleware())
		{
			users.GET("/me", h.getCurrentUser)
			users.GET("/:id", h.getUserByID)
		}
	}

	if h.ws != nil {
		router.GET("/ws", h.ws)
	}

	router.GET("/health", h.healthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/swagger", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
}

func (h *Handler) initChatRoutes(api *gin.RouterGroup) {
	chat := api.Group("/chat")
	chat.Use(h.authMiddleware())
	{
		chat.GET("", h.openChat)
		chat.GET("/user/chats", h.getUserChats)
		chat.POST("/message", h.sendMessage)

		chat.GET("/:id/messages", h.getMessages)
		chat.POST("/:id/read", h.markChatRead)
		chat.GET("/:id/unread", h.getUnreadCount)
	}
}

// @Summary Health check
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := h.health.Ping(ctx); err != nil {
			h.logger.Warn("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func parseID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "INVALID_ID", "malformed "+name)
		return uuid.Nil, false
	}
	return id, true
}
