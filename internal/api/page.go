package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wuwenbin0122/flexchat/internal/models"
)

type pageData struct {
	Title string
	Turns []models.Turn
}

func (h *Handler) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "chat.html", pageData{
		Title: h.opts.Title,
		Turns: h.registry.Get(sessionIDFrom(c)).Snapshot(),
	})
}

// handleChatForm serves browsers without javascript. Blank prompts and
// submissions made while a reply is pending are dropped; the redirect shows
// the conversation as it stands.
func (h *Handler) handleChatForm(c *gin.Context) {
	conv := h.registry.Get(sessionIDFrom(c))
	if _, err := h.exchange(c.Request.Context(), conv, c.PostForm("prompt"), nil); err != nil {
		h.logger.Debugf("chat form submission dropped: %v", err)
	}

	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) handleResetForm(c *gin.Context) {
	h.registry.Reset(sessionIDFrom(c))
	c.Redirect(http.StatusSeeOther, "/")
}
