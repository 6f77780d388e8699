package api

import (
	"net/http"

	"alcyxob/intern-platform/internal/logger"
	"alcyxob/intern-platform/internal/service"

	"github.com/gin-gonic/gin"
)

type AssistantHandler struct {
	assistant service.AssistantService
	log       *logger.Logger
}

func NewAssistantHandler(assistant service.AssistantService, log *logger.Logger) *AssistantHandler {
	return &AssistantHandler{assistant: assistant, log: log}
}

type ChatRequest struct {
	Message string `json:"message"`
}

// Chat godoc
// @Summary Ask the platform assistant
// @Description Provider failures yield a fixed fallback reply, never an error.
// @Tags Assistant
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ChatRequest true "Message"
// @Success 200 {object} service.ChatReply
// @Failure 400 {object} ErrorResponse "Empty message"
// @Router /assistant/chat [post]
func (h *AssistantHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid_request", "Validation error: "+err.Error())
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	reply, err := h.assistant.Chat(c.Request.Context(), actor, req.Message)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}
