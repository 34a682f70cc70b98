package handlers

import (
	"net/http"
	"strings"

	"phone_ordering_backend/internal/models"
	"phone_ordering_backend/internal/services"
	"phone_ordering_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// VoiceHandler receives webhooks from the voice agent and the telephony layer.
type VoiceHandler struct {
	tools  services.VoiceToolService
	router services.CallRouter
}

// NewVoiceHandler creates a new VoiceHandler.
func NewVoiceHandler(tools services.VoiceToolService, router services.CallRouter) *VoiceHandler {
	return &VoiceHandler{tools: tools, router: router}
}

// ToolCalls answers a batch of tool calls. Tool failures are reported per call, never as HTTP errors.
func (h *VoiceHandler) ToolCalls(c *gin.Context) {
	var req models.ToolWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.tools.HandleToolCalls(c.Request.Context(), &req))
}

// InboundCall decides where a new call goes.
func (h *VoiceHandler) InboundCall(c *gin.Context) {
	event, ok := bindCallEvent(c)
	if !ok {
		return
	}
	directive, err := h.router.RouteInboundCall(c.Request.Context(), event)
	if err != nil {
		respondServiceError(c, err, "route call")
		return
	}
	c.JSON(http.StatusOK, directive)
}

// NoAnswer is the fallback target after staff did not pick up.
func (h *VoiceHandler) NoAnswer(c *gin.Context) {
	event, ok := bindCallEvent(c)
	if !ok {
		return
	}
	directive, err := h.router.RouteNoAnswer(c.Request.Context(), event)
	if err != nil {
		respondServiceError(c, err, "route unanswered call")
		return
	}
	c.JSON(http.StatusOK, directive)
}

// bindCallEvent accepts JSON or the form-encoded callbacks most telephony providers send.
func bindCallEvent(c *gin.Context) (models.CallEvent, bool) {
	var event models.CallEvent
	if strings.HasPrefix(c.ContentType(), "application/json") {
		if err := c.ShouldBindJSON(&event); err != nil {
			respondBindError(c, err)
			return event, false
		}
	} else {
		event = models.CallEvent{
			DestinationLine: firstNonEmpty(c.PostForm("destinationLine"), c.PostForm("To")),
			OriginLine:      firstNonEmpty(c.PostForm("originLine"), c.PostForm("From")),
			CallID:          firstNonEmpty(c.PostForm("callId"), c.PostForm("CallSid")),
		}
	}
	if event.DestinationLine == "" {
		utils.RespondValidationFailed(c, "destinationLine is required")
		return event, false
	}
	return event, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
