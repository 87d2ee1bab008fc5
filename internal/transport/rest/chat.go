package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"barberapp/internal/domain"
)

// @Summary Open chat with a barber
// @Description Returns the caller's chat with the barber, creating it on first contact
// @Tags Chat
// @Produce json
// @Security ApiKeyAuth
// @Param barberId query string true "Barber ID"
// @Success 200 {object} successResponseBody{data=map[string]domain.Chat}
// @Failure 400 {object} errorResponseBody
// @Failure 404 {object} errorResponseBody
// @Router /chat [get]
func (h *Handler) openChat(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	barberID, err := uuid.Parse(c.Query("barberId"))
	if err != nil {
		errorResponse(c, http.StatusBadRequest, domain.ErrInvalidID.Code, "barberId must be a valid id")
		return
	}

	chat, err := h.services.Chat.OpenOrGet(c.Request.Context(), principal, barberID)
	if err != nil {
		appErrorResponse(c, h.logger, err)
		return
	}

	successResponse(c, http.StatusOK, gin.H{"chat": chat})
}

// @Summary My chats
// @Tags Chat
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} successResponseBody{data=map[string][]domain.Chat}
// @Failure 401 {object} errorResponseBody
// @Router /chat/user/chats [get]
func (h *Handler) getUserChats(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	chats, err := h.services.Chat.ListForUser(c.Request.Context(), principal)
	if err != nil {
		appErrorResponse(c, h.logger, err)
		return
	}
	if chats == nil {
		chats = []domain.Chat{}
	}

	successResponse(c, http.StatusOK, gin.H{"chats": chats})
}

// @Summary Chat history
// @Tags Chat
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Chat ID"
// @Param after query int false "Return messages with seq greater than this"
// @Param limit query int false "Page size"
// @Success 200 {object} successResponseBody{data=map[string]domain.Chat}
// @Failure 403 {object} errorResponseBody
// @Failure 404 {object} errorResponseBody
// @Router /chat/{id}/messages [get]
func (h *Handler) getMessages(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	after, err := strconv.ParseInt(c.DefaultQuery("after", "0"), 10, 64)
	if err != nil || after < 0 {
		badRequestResponse(c, "after must be a non-negative integer")
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		badRequestResponse(c, "limit must be a non-negative integer")
		return
	}

	chat, err := h.services.Chat.ListMessages(c.Request.Context(), principal, id, domain.MessagesQuery{AfterSeq: after, Limit: limit})
	if err != nil {
		appErrorResponse(c, h.logger, err)
		return
	}
	if chat.Messages == nil {
		chat.Messages = []domain.Message{}
	}

	successResponse(c, http.StatusOK, gin.H{"chat": chat})
}

// @Summary Send message
// @Description Appends a message. With barberId instead of chatId the chat is created if needed.
// @Tags Chat
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param input body domain.SendMessageDTO true "Message"
// @Success 201 {object} successResponseBody{data=map[string]domain.Message}
// @Failure 400 {object} errorResponseBody
// @Failure 403 {object} errorResponseBody
// @Failure 404 {object} errorResponseBody
// @Router /chat/message [post]
func (h *Handler) sendMessage(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	var req domain.SendMessageDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingErrorResponse(c, err)
		return
	}

	message, err := h.services.Chat.Append(c.Request.Context(), principal, req)
	if err != nil {
		appErrorResponse(c, h.logger, err)
		return
	}

	createdResponse(c, gin.H{"message": message})
}

// @Summary Mark chat read
// @Description Marks every message from the other party as read
// @Tags Chat
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Chat ID"
// @Success 200 {object} successResponseBody{data=map[string]int64}
// @Failure 403 {object} errorResponseBody
// @Failure 404 {object} errorResponseBody
// @Router /chat/{id}/read [post]
func (h *Handler) markChatRead(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	marked, err := h.services.Chat.MarkRead(c.Request.Context(), principal, id)
	if err != nil {
		appErrorResponse(c, h.logger, err)
		return
	}

	successResponse(c, http.StatusOK, gin.H{"marked": marked})
}

// @Summary Unread count
// @Tags Chat
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Chat ID"
// @Success 200 {object} successResponseBody{data=map[string]int}
// @Failure 403 {object} errorResponseBody
// @Failure 404 {object} errorResponseBody
// @Router /chat/{id}/unread [get]
func (h *Handler) getUnreadCount(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	count, err := h.services.Chat.UnreadCount(c.Request.Context(), principal, id)
	if err != nil {
		appErrorResponse(c, h.logger, err)
		return
	}

	successResponse(c, http.StatusOK, gin.H{"count": count})
}
