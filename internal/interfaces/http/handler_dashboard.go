package http

import (
	"errors"
	"fmt"
	"net/http"

	"waitlist_funnel/internal/usecases"

	"github.com/gin-gonic/gin"
)

// session resolves the caller's dashboard session or writes the error.
func (h *Handler) session(c *gin.Context) (*usecases.DashboardSession, bool) {
	s, err := h.dashboard.Session(c.Request.Context(), sessionID(c))
	if err != nil {
		errorJSON(c, http.StatusUnauthorized, "no_session", "Sign in again")
		return nil, false
	}
	return s, true
}

func (h *Handler) GetDashboard(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.View())
}

// ReloadDashboard refetches the list. A failed fetch is reported in the
// view, not as an error status.
func (h *Handler) ReloadDashboard(c *gin.Context) {
	view, err := h.dashboard.Reload(c.Request.Context(), sessionID(c))
	if err != nil {
		errorJSON(c, http.StatusUnauthorized, "no_session", "Sign in again")
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) SetFilter(c *gin.Context) {
	var req struct {
		Filter string `json:"filter"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid_request", "Invalid request")
		return
	}
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.SetFilter(CleanInput(req.Filter, MaxFilterLength)))
}

func (h *Handler) Navigate(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	view, err := s.Navigate(c.Param("op"))
	if errors.Is(err, usecases.ErrUnknownPageOp) {
		errorJSON(c, http.StatusBadRequest, "unknown_page_op", "Use first, previous, next or last")
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) GoToPage(c *gin.Context) {
	var req struct {
		Page int `json:"page"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid_request", "Invalid request")
		return
	}
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.GoTo(req.Page))
}

func (h *Handler) ToggleSelection(c *gin.Context) {
	id := c.Param("id")
	if !ValidSubscriberID(id) {
		errorJSON(c, http.StatusBadRequest, "invalid_id", "Invalid subscriber id")
		return
	}
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Toggle(id))
}

func (h *Handler) ToggleAllOnPage(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.ToggleAllOnPage())
}

func (h *Handler) ClearSelection(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.ClearSelection())
}

// ExportCSV downloads the filtered list.
func (h *Handler) ExportCSV(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	filename, body := s.ExportCSV(h.now())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", body)
}

// EmailList returns the filtered emails ready for the clipboard.
func (h *Handler) EmailList(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	list, count := s.EmailList()
	c.JSON(http.StatusOK, gin.H{"emails": list, "count": count})
}

// BulkMail returns a bcc mailto link for the selection on the current page.
func (h *Handler) BulkMail(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	link, count, err := s.BulkMail()
	if errors.Is(err, usecases.ErrNothingSelected) {
		errorJSON(c, http.StatusUnprocessableEntity, "nothing_selected", "Select at least one subscriber on this page")
		return
	}
	c.JSON(http.StatusOK, gin.H{"mailto": link, "count": count})
}
