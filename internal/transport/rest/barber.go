package rest

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"barberapp/internal/domain"
)

const maxPhotoSize = 5 << 20

// @Summary List barbers
// @Description Returns active barbers ordered by rating
// @Tags Barbers
// @Produce json
// @Success 200 {object} successResponseBody{data=map[string][]domain.Barber}
// @Failure 500 {object} errorResponseBody
// @Router /barbers/all [get]
func (h *Handler) getBarbers(c *gin.Context) {
	barbers, err := h.services.Barber.List(c.Request.Context())
	if err != nil {
		appErrorResponse(c, h.logger, err)
		return
	}

	successResponse(c, http.StatusOK, gin.H{"barbers": barbers})
}

// @Summary Get barber
// @Tags Barbers
// @Produce json
// @Param id path string true "Barber ID"
// @Success 200 {object} successResponseBody{data=map[string]domain.Barber}
// @Failure 400 {object} errorResponseBody
// @Failure 404 {object} errorResponseBody
// @Router /barbers/{id} [get]
func (h *Handler) getBarberByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	barber, err := h.services.Barber.GetByID(c.Request.Context(), id)
	if err != nil {
		appErrorResponse(c, h.logger, err)
		return
	}

	successResponse(c, http.StatusOK, gin.H{"barber": barber})
}

// @Summary Get own barber profile
// @Tags Barbers
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} successResponseBody{data=map[string]domain.Barber}
// @Failure 401 {object} errorResponseBody
// @Failure 403 {object} errorResponseBody
// @Router /barbers/me [get]
func (h *Handler) getMyBarberProfile(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	barber, err := h.services.Barber.GetForUser(c.Request.Context(), principal.UserID)
	if err != nil {
		appErrorResponse(c, h.logger, err)
		return
	}

	successResponse(c, http.StatusOK, gin.H{"barber": barber})
}

// @Summary Replace working hours
// @Description Replaces the weekly working hours template of the calling barber
// @Tags Barbers
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param input body domain.UpdateWorkingHoursDTO true "Weekly template"
// @Success 200 {object} successResponseBody{data=map[string]domain.Barber}
// @Failure 400 {object} errorResponseBody
// @Failure 401 {object} errorResponseBody
// @Failure 403 {object} errorResponseBody
// @Router /barbers/me/working-hours [put]
func (h *Handler) updateWorkingHours(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	var req domain.UpdateWorkingHoursDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingErrorResponse(c, err)
		return
	}

	barber, err := h.services.Barber.UpdateWorkingHours(c.Request.Context(), principal, req.WorkingHours)
	if err != nil {
		appErrorResponse(c, h.logger, err)
		return
	}

	successResponse(c, http.StatusOK, gin.H{"barber": barber})
}

// @Summary Replace services
// @Tags Barbers
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param input body domain.UpdateServicesDTO true "Service list"
// @Success 200 {object} successResponseBody{data=map[string]domain.Barber}
// @Failure 400 {object} errorResponseBody
// @Failure 401 {object} errorResponseBody
// @Failure 403 {object} errorResponseBody
// @Router /barbers/me/services [put]
func (h *Handler) updateServices(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	var req domain.UpdateServicesDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingErrorResponse(c, err)
		return
	}

	barber, err := h.services.Barber.UpdateServices(c.Request.Context(), principal, req.Services)
	if err != nil {
		appErrorResponse(c, h.logger, err)
		return
	}

	successResponse(c, http.StatusOK, gin.H{"barber": barber})
}

// @Summary Upload profile photo
// @Tags Barbers
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param photo formData file true "Image file"
// @Success 200 {object} successResponseBody{data=map[string]domain.Barber}
// @Failure 400 {object} errorResponseBody
// @Failure 401 {object} errorResponseBody
// @Failure 503 {object} errorResponseBody
// @Router /barbers/me/photo [post]
func (h *Handler) uploadBarberPhoto(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	file, err := c.FormFile("photo")
	if err != nil {
		badRequestResponse(c, "photo file is required")
		return
	}
	if file.Size > maxPhotoSize {
		badRequestResponse(c, "photo must be at most 5 MB")
		return
	}

	src, err := file.Open()
	if err != nil {
		h.logger.Error("ошибка открытия файла", zap.Error(err))
		internalServerErrorResponse(c)
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		h.logger.Error("ошибка чтения файла", zap.Error(err))
		internalServerErrorResponse(c)
		return
	}

	barber, err := h.services.Barber.UploadPhoto(c.Request.Context(), principal, data, file.Filename)
	if err != nil {
		appErrorResponse(c, h.logger, err)
		return
	}

	successResponse(c, http.StatusOK, gin.H{"barber": barber})
}
