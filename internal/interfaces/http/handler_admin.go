package http

import (
	"errors"
	"net/http"

	"waitlist_funnel/internal/infrastructure"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ChannelStatus lists the messaging channels serving the assistant.
func (h *Handler) ChannelStatus(c *gin.Context) {
	statuses := make([]infrastructure.ChannelStatus, 0, len(h.channels))
	for _, ch := range h.channels {
		statuses = append(statuses, ch.Status())
	}
	c.JSON(http.StatusOK, gin.H{"channels": statuses, "chat_sessions": h.chats.Len()})
}

// WhatsAppQR returns the pairing QR code as a PNG.
func (h *Handler) WhatsAppQR(c *gin.Context) {
	if h.pairing == nil {
		c.String(http.StatusServiceUnavailable, "WhatsApp not configured")
		return
	}
	png, err := h.pairing.QRPNG(256)
	if errors.Is(err, infrastructure.ErrNoQR) {
		c.String(http.StatusAccepted, "QR code not yet available. Please wait...")
		return
	}
	if err != nil {
		c.String(http.StatusInternalServerError, "Failed to generate QR code")
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// WhatsAppLogout unlinks the paired device. A new QR code follows.
func (h *Handler) WhatsAppLogout(c *gin.Context) {
	if h.pairing == nil {
		c.String(http.StatusServiceUnavailable, "WhatsApp not configured")
		return
	}
	if err := h.pairing.Logout(c.Request.Context()); err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("whatsapp logout failed")
		errorJSON(c, http.StatusInternalServerError, "logout_failed", "Failed to unlink WhatsApp")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "awaiting_pairing"})
}
