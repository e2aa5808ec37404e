package subscription

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// GET /subscription
func (h *Handler) GetMine(c *gin.Context) {
	userID := c.GetUint("user_id")

	sub, err := h.svc.EnsureSubscription(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, sub)
}

// POST /subscription/upgrade
func (h *Handler) StartUpgrade(c *gin.Context) {
	userID := c.GetUint("user_id")

	var req UpgradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.svc.StartUpgrade(c.Request.Context(), userID, req.PlanType)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, order)
}

// POST /subscription/verify
func (h *Handler) VerifyPayment(c *gin.Context) {
	userID := c.GetUint("user_id")

	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.svc.VerifyAndUpgrade(c.Request.Context(), userID, req, c.ClientIP()); err != nil {
		if errors.Is(err, ErrInvalidSignature) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "plan upgraded"})
}
