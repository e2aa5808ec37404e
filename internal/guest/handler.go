package guest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/danuartha/wedding-management-backend/internal/subscription"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) respondError(c *gin.Context, err error) {
	var qErr *subscription.QuotaExceededError
	var itErr *IllegalTransitionError

	switch {
	case errors.As(err, &qErr):
		c.JSON(http.StatusForbidden, gin.H{
			"error": qErr.Error(),
			"kind":  qErr.Kind,
			"limit": qErr.Limit,
			"used":  qErr.Used,
		})
	case errors.As(err, &itErr):
		c.JSON(http.StatusConflict, gin.H{
			"error": itErr.Error(),
			"from":  itErr.From,
			"to":    itErr.To,
		})
	case errors.Is(err, ErrInvalidPax):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "guest not found"})
	default:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	}
}

func eventIDParam(c *gin.Context) uint {
	id, _ := strconv.ParseUint(c.Param("eventID"), 10, 32)
	return uint(id)
}

func guestIDParam(c *gin.Context) uint {
	id, _ := strconv.ParseUint(c.Param("guestID"), 10, 32)
	return uint(id)
}

// POST /events/:eventID/guests
func (h *Handler) Create(c *gin.Context) {
	var req CreateGuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	g, err := h.svc.Create(c.Request.Context(), eventIDParam(c), req, c.GetUint("user_id"), c.ClientIP())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, g)
}

// GET /events/:eventID/guests
func (h *Handler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	filter := GuestFilter{
		EventID:  eventIDParam(c),
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Limit:    limit,
		Offset:   offset,
	}

	guests, total, err := h.svc.List(c.Request.Context(), filter, c.GetUint("user_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": guests, "total": total})
}

// GET /events/:eventID/guests/:guestID
func (h *Handler) Get(c *gin.Context) {
	g, err := h.svc.Get(c.Request.Context(), eventIDParam(c), guestIDParam(c), c.GetUint("user_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

// PUT /events/:eventID/guests/:guestID
func (h *Handler) Update(c *gin.Context) {
	var req UpdateGuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	g, err := h.svc.Update(c.Request.Context(), eventIDParam(c), guestIDParam(c), req, c.GetUint("user_id"), c.ClientIP())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

// DELETE /events/:eventID/guests/:guestID
func (h *Handler) Delete(c *gin.Context) {
	err := h.svc.Delete(c.Request.Context(), eventIDParam(c), guestIDParam(c), c.GetUint("user_id"), c.ClientIP())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "guest deleted"})
}

// POST /events/:eventID/guests/:guestID/share
func (h *Handler) Share(c *gin.Context) {
	g, err := h.svc.ShareInvitation(c.Request.Context(), eventIDParam(c), guestIDParam(c), c.GetUint("user_id"), c.ClientIP())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

// POST /events/:eventID/guests/:guestID/check-in
func (h *Handler) CheckIn(c *gin.Context) {
	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	g, err := h.svc.CheckIn(c.Request.Context(), eventIDParam(c), guestIDParam(c), req.AttendedPax, c.GetUint("user_id"), c.ClientIP())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

// GET /invitations/:slug  (public, rate-limited)
func (h *Handler) ViewInvitation(c *gin.Context) {
	g, err := h.svc.ViewInvitation(c.Request.Context(), c.Param("slug"), c.ClientIP())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

// POST /invitations/:slug/rsvp  (public, rate-limited)
func (h *Handler) SubmitRSVP(c *gin.Context) {
	var req RSVPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	g, err := h.svc.SubmitRSVP(c.Request.Context(), c.Param("slug"), req, c.ClientIP())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}
