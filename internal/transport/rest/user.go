package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"barberapp/internal/domain"
)

// @Summary Current user
// @Tags Users
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} successResponseBody{data=map[string]domain.User}
// @Failure 401 {object} errorResponseBody
// @Failure 404 {object} errorResponseBody
// @Router /users/me [get]
func (h *Handler) getCurrentUser(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	h.respondUser(c, principal, principal.UserID)
}

// @Summary Get user
// @Description Users can read their own profile, admins any profile
// @Tags Users
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "User ID"
// @Success 200 {object} successResponseBody{data=map[string]domain.User}
// @Failure 400 {object} errorResponseBody
// @Failure 403 {object} errorResponseBody
// @Failure 404 {object} errorResponseBody
// @Router /users/{id} [get]
func (h *Handler) getUserByID(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	h.respondUser(c, principal, id)
}

func (h *Handler) respondUser(c *gin.Context, principal domain.Principal, id uuid.UUID) {
	user, err := h.services.User.GetByID(c.Request.Context(), principal, id)
	if err != nil {
		appErrorResponse(c, h.logger, err)
		return
	}

	successResponse(c, http.StatusOK, gin.H{"user": user})
}
