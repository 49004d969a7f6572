package http

import (
	"errors"
	"net/http"

	"waitlist_funnel/internal/entities"
	"waitlist_funnel/internal/usecases"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type joinRequest struct {
	Name      string              `json:"name"`
	Email     string              `json:"email" binding:"required,email"`
	Interests *entities.Interests `json:"interests"`
}

// JoinWaitlist handles the public form. Already-joined and store failures
// are outcomes the form shows, reported in "state".
func (h *Handler) JoinWaitlist(c *gin.Context) {
	var req joinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid_request", "A valid email is required")
		return
	}
	if len(req.Email) > MaxEmailLength {
		errorJSON(c, http.StatusBadRequest, "invalid_request", "Email is too long")
		return
	}

	res, err := h.submissions.Submit(c.Request.Context(), usecases.SubmissionForm{
		Name:      CleanInput(req.Name, MaxNameLength),
		Email:     SanitizeString(req.Email),
		Interests: req.Interests,
	})
	if err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	switch res.Outcome {
	case usecases.SubmissionJoined:
		c.JSON(http.StatusCreated, res)
	case usecases.SubmissionAlreadyJoined:
		c.JSON(http.StatusOK, res)
	default:
		c.JSON(http.StatusInternalServerError, res)
	}
}

func (h *Handler) ListFAQs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"faqs": h.chats.Script().Questions()})
}

// OpenChat opens the widget: a new session, greeted after a short delay.
func (h *Handler) OpenChat(c *gin.Context) {
	_, snap := h.chats.Open("")
	c.JSON(http.StatusCreated, snap)
}

func (h *Handler) chatSession(c *gin.Context) (*usecases.ChatSession, bool) {
	id := c.Param("id")
	if !ValidChatSessionID(id) {
		errorJSON(c, http.StatusNotFound, "chat_not_found", "Chat session not found")
		return nil, false
	}
	s, err := h.chats.Get(id)
	if err != nil {
		errorJSON(c, http.StatusNotFound, "chat_not_found", "Chat session not found")
		return nil, false
	}
	return s, true
}

func (h *Handler) GetChat(c *gin.Context) {
	s, ok := h.chatSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

func (h *Handler) SendChatMessage(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid_request", "Invalid request")
		return
	}
	s, ok := h.chatSession(c)
	if !ok {
		return
	}
	snap, err := s.Submit(CleanInput(req.Text, MaxChatMessageLength))
	if err != nil {
		chatError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, snap)
}

func (h *Handler) SelectChatFAQ(c *gin.Context) {
	var req struct {
		Question string `json:"question"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid_request", "Invalid request")
		return
	}
	s, ok := h.chatSession(c)
	if !ok {
		return
	}
	snap, err := s.SelectFAQ(CleanInput(req.Question, MaxChatMessageLength))
	if err != nil {
		chatError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, snap)
}

// CloseChat closes the widget and discards the conversation.
func (h *Handler) CloseChat(c *gin.Context) {
	if err := h.chats.Close(c.Param("id")); err != nil {
		errorJSON(c, http.StatusNotFound, "chat_not_found", "Chat session not found")
		return
	}
	c.Status(http.StatusNoContent)
}

func chatError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecases.ErrEmptyMessage):
		errorJSON(c, http.StatusBadRequest, "empty_message", "Type a message first")
	case errors.Is(err, usecases.ErrBotResponding):
		errorJSON(c, http.StatusConflict, "bot_responding", "The assistant is still replying")
	case errors.Is(err, usecases.ErrFAQHidden):
		errorJSON(c, http.StatusConflict, "faq_hidden", "Quick replies are not available right now")
	case errors.Is(err, usecases.ErrChatClosed):
		errorJSON(c, http.StatusGone, "chat_closed", "The chat is closed")
	default:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("chat failed")
		errorJSON(c, http.StatusInternalServerError, "chat_failed", "Something went wrong")
	}
}
