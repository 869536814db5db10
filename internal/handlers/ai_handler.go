package handlers

import (
	"net/http"

	"go-pos-gst/internal/middleware"

	"github.com/gin-gonic/gin"
)

type ChatRequest struct {
	Message string `json:"message" binding:"required,max=2000"`
}

func (h *Handler) AskAI(c *gin.Context) {
	var req ChatRequest
	if !bind(c, &req) {
		return
	}

	response, err := h.assistant.Ask(c.Request.Context(), principal(c), req.Message)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"reply": response})
}
