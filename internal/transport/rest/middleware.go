package rest

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"barberapp/internal/domain"
	"barberapp/internal/metrics"
)

const (
	authorizationHeader = "Authorization"
	principalCtx        = "principal"
)

func (h *Handler) loggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		logger := h.logger.With(
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
			zap.String("user-agent", c.Request.UserAgent()),
		)

		if status >= 500 {
			logger.Error("server error")
		} else if status >= 400 {
			logger.Warn("client error")
		} else {
			logger.Debug("request processed")
		}
	}
}

// metricsMiddleware labels requests by route template so that ids in the
// path do not blow up label cardinality.
func (h *Handler) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func (h *Handler) errorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		for _, err := range c.Errors {
			h.logger.Error("request error",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err.Err),
			)
		}
	}
}

func (h *Handler) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Content-Length, Accept-Encoding, Origin, Accept, User-Agent, X-Requested-With, Cache-Control")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Type, Retry-After")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		origin := c.Request.Header.Get("Origin")
		if origin != "" && c.Request.Header.Get(authorizationHeader) != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (h *Handler) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(authorizationHeader)
		if header == "" {
			unauthorizedResponse(c)
			return
		}

		headerParts := strings.Split(header, " ")
		if len(headerParts) != 2 || headerParts[0] != "Bearer" || headerParts[1] == "" {
			errorResponse(c, http.StatusUnauthorized, domain.ErrInvalidToken.Code, "invalid authorization header format")
			return
		}

		userID, role, err := h.tokens.Parse(headerParts[1])
		if err != nil {
			h.logger.Debug("token rejected", zap.Error(err))
			errorResponse(c, http.StatusUnauthorized, domain.ErrInvalidToken.Code, domain.ErrInvalidToken.Message)
			return
		}

		userRole := domain.UserRole(role)
		if !userRole.Valid() {
			userRole = domain.UserRoleUser
		}

		c.Set(principalCtx, domain.Principal{UserID: userID, Role: userRole})

		c.Next()
	}
}

func (h *Handler) barberMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := getPrincipal(c)
		if err != nil {
			unauthorizedResponse(c)
			return
		}

		if principal.Role != domain.UserRoleBarber && !principal.IsAdmin() {
			errorResponse(c, http.StatusForbidden, domain.ErrBarberOnly.Code, domain.ErrBarberOnly.Message)
			return
		}

		c.Next()
	}
}

func getPrincipal(c *gin.Context) (domain.Principal, error) {
	value, exists := c.Get(principalCtx)
	if !exists {
		return domain.Principal{}, errors.New("user is not authenticated")
	}

	principal, ok := value.(domain.Principal)
	if !ok {
		return domain.Principal{}, errors.New("unexpected principal type")
	}

	return principal, nil
}
