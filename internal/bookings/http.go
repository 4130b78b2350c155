package bookings

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/expert-buddy/expertbuddy-backend/internal/guard"
)

// Store is the booking persistence the handlers need; satisfied by
// *Repo.
type Store interface {
	Create(ctx context.Context, b *Booking) error
	ListByClient(ctx context.Context, clientUserID string) ([]Booking, error)
	ListByExpert(ctx context.Context, expertID string) ([]Booking, error)
	Confirm(ctx context.Context, expertID, bookingID string) (*Booking, error)
	Cancel(ctx context.Context, userID, bookingID string) (*Booking, error)
}

type Handler struct {
	repo Store
}

// RegisterClient attaches the signed-in client's booking routes; the
// caller wraps the group in the authenticated guard.
func RegisterClient(rg *gin.RouterGroup, repo Store) {
	h := &Handler{repo: repo}

	rg.POST("", h.create)
	rg.GET("", h.listMine)
	rg.POST("/:id/cancel", h.cancel)
}

// RegisterExpert attaches the expert's incoming-booking routes.
func RegisterExpert(rg *gin.RouterGroup, repo Store) {
	h := &Handler{repo: repo}

	rg.GET("/bookings", h.listIncoming)
	rg.POST("/bookings/:id/confirm", h.confirm)
	rg.POST("/bookings/:id/cancel", h.cancel)
}

type createReq struct {
	ExpertID     string `json:"expert_id" binding:"required"`
	OfferingID   string `json:"offering_id" binding:"required"`
	Date         string `json:"date" binding:"required"`
	Slot         string `json:"slot" binding:"required"`
	ContactName  string `json:"contact_name" binding:"required"`
	ContactEmail string `json:"contact_email" binding:"required,email"`
	ContactPhone string `json:"contact_phone"`
	Notes        string `json:"notes"`
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	b := &Booking{
		ClientUserID: guard.UserID(c),
		ExpertID:     req.ExpertID,
		OfferingID:   req.OfferingID,
		Date:         req.Date,
		Slot:         req.Slot,
		ContactName:  req.ContactName,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		Notes:        req.Notes,
	}
	if err := h.repo.Create(c.Request.Context(), b); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create booking"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"booking": b})
}

func (h *Handler) listMine(c *gin.Context) {
	list, err := h.repo.ListByClient(c.Request.Context(), guard.UserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list bookings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": list})
}

func (h *Handler) listIncoming(c *gin.Context) {
	list, err := h.repo.ListByExpert(c.Request.Context(), guard.UserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list bookings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": list})
}

func (h *Handler) confirm(c *gin.Context) {
	b, err := h.repo.Confirm(c.Request.Context(), guard.UserID(c), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to confirm booking"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) cancel(c *gin.Context) {
	b, err := h.repo.Cancel(c.Request.Context(), guard.UserID(c), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to cancel booking"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}
