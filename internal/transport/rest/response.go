package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"barberapp/internal/domain"
	"barberapp/pkg/validator"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponseBody struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
}

type successResponseBody struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

func successResponse(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, successResponseBody{
		Success: true,
		Data:    data,
	})
}

func createdResponse(c *gin.Context, data interface{}) {
	successResponse(c, http.StatusCreated, data)
}

func errorResponse(c *gin.Context, statusCode int, code, message string) {
	c.AbortWithStatusJSON(statusCode, errorResponseBody{
		Success: false,
		Error:   errorBody{Code: code, Message: message},
	})
}

func badRequestResponse(c *gin.Context, message string) {
	errorResponse(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

func unauthorizedResponse(c *gin.Context) {
	errorResponse(c, http.StatusUnauthorized, domain.ErrUnauthorized.Code, domain.ErrUnauthorized.Message)
}

func internalServerErrorResponse(c *gin.Context) {
	errorResponse(c, http.StatusInternalServerError, "INTERNAL", "internal server error")
}

var kindStatus = map[domain.ErrorKind]int{
	domain.KindValidation:  http.StatusBadRequest,
	domain.KindAuth:        http.StatusUnauthorized,
	domain.KindForbidden:   http.StatusForbidden,
	domain.KindNotFound:    http.StatusNotFound,
	domain.KindConflict:    http.StatusConflict,
	domain.KindUnavailable: http.StatusServiceUnavailable,
}

// appErrorResponse writes err using the status of its kind. Errors that are
// not AppErrors are attached to the context for errorMiddleware and
// reported as a generic 500.
func appErrorResponse(c *gin.Context, logger *zap.Logger, err error) {
	var appErr *domain.AppError
	if !errors.As(err, &appErr) {
		_ = c.Error(err)
		internalServerErrorResponse(c)
		return
	}

	status, ok := kindStatus[appErr.Kind]
	if !ok {
		logger.Error("internal error", zap.String("path", c.FullPath()), zap.Error(err))
		internalServerErrorResponse(c)
		return
	}

	if status == http.StatusServiceUnavailable {
		c.Header("Retry-After", "1")
		logger.Warn("service unavailable", zap.String("path", c.FullPath()), zap.Error(err))
	}

	errorResponse(c, status, appErr.Code, appErr.Message)
}

func bindingErrorResponse(c *gin.Context, err error) {
	errorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", validator.Message(err))
}
