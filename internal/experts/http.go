package experts

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/expert-buddy/expertbuddy-backend/internal/guard"
)

// Store is the directory persistence the handlers need; satisfied by
// *Repo.
type Store interface {
	Directory(ctx context.Context, category, location string) ([]Expert, error)
	Get(ctx context.Context, userID string) (*Expert, error)
	UpsertCard(ctx context.Context, e *Expert) error
	ListOfferings(ctx context.Context, expertID string) ([]Offering, error)
	CreateOffering(ctx context.Context, o *Offering) error
	DeleteOffering(ctx context.Context, expertID, offeringID string) (bool, error)
	SetAvailability(ctx context.Context, expertID string, rules []AvailabilityRule) error
	GetAvailability(ctx context.Context, expertID string) ([]AvailabilityRule, error)
	ListTemplates(ctx context.Context, expertID string) ([]Template, error)
	CreateTemplate(ctx context.Context, t *Template) error
	DeleteTemplate(ctx context.Context, expertID, templateID string) (bool, error)
}

type Handler struct {
	repo Store
}

// RegisterPublic attaches the read-only directory routes.
func RegisterPublic(rg *gin.RouterGroup, repo Store) {
	h := &Handler{repo: repo}

	rg.GET("", h.directory)
	rg.GET("/:user_id", h.get)
	rg.GET("/:user_id/offerings", h.listOfferings)
	rg.GET("/:user_id/availability", h.getAvailability)
}

// RegisterDashboard attaches the expert-only management routes; the
// caller wraps the group in the expert guard.
func RegisterDashboard(rg *gin.RouterGroup, repo Store) {
	h := &Handler{repo: repo}

	rg.PUT("/card", h.upsertCard)
	rg.POST("/offerings", h.createOffering)
	rg.DELETE("/offerings/:id", h.deleteOffering)
	rg.PUT("/availability", h.setAvailability)
	rg.GET("/templates", h.listTemplates)
	rg.POST("/templates", h.createTemplate)
	rg.DELETE("/templates/:id", h.deleteTemplate)
}

func (h *Handler) directory(c *gin.Context) {
	list, err := h.repo.Directory(c.Request.Context(), c.Query("category"), c.Query("location"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list experts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"experts": list})
}

func (h *Handler) get(c *gin.Context) {
	e, err := h.repo.Get(c.Request.Context(), c.Param("user_id"))
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "expert not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load expert"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"expert": e})
}

func (h *Handler) listOfferings(c *gin.Context) {
	list, err := h.repo.ListOfferings(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list offerings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"offerings": list})
}

func (h *Handler) getAvailability(c *gin.Context) {
	rules, err := h.repo.GetAvailability(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load availability"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"availability": rules})
}

type cardReq struct {
	Name       string `json:"name" binding:"required"`
	Headline   string `json:"headline"`
	Category   string `json:"category"`
	Location   string `json:"location"`
	HourlyRate int    `json:"hourly_rate_cents"`
	AvatarURL  string `json:"avatar_url"`
}

func (h *Handler) upsertCard(c *gin.Context) {
	var req cardReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	e := &Expert{
		UserID:     guard.UserID(c),
		Name:       req.Name,
		Headline:   req.Headline,
		Category:   req.Category,
		Location:   req.Location,
		HourlyRate: req.HourlyRate,
		AvatarURL:  req.AvatarURL,
	}
	if err := h.repo.UpsertCard(c.Request.Context(), e); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save card"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"expert": e})
}

type offeringReq struct {
	Name        string `json:"name" binding:"required"`
	DurationMin int    `json:"duration_minutes" binding:"required,min=15"`
	PriceCents  int    `json:"price_cents" binding:"required,min=0"`
	Description string `json:"description"`
}

func (h *Handler) createOffering(c *gin.Context) {
	var req offeringReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	o := &Offering{
		ExpertID:    guard.UserID(c),
		Name:        req.Name,
		DurationMin: req.DurationMin,
		PriceCents:  req.PriceCents,
		Description: req.Description,
	}
	if err := h.repo.CreateOffering(c.Request.Context(), o); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create offering"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"offering": o})
}

func (h *Handler) deleteOffering(c *gin.Context) {
	ok, err := h.repo.DeleteOffering(c.Request.Context(), guard.UserID(c), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete offering"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "offering not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type availabilityReq struct {
	Rules []AvailabilityRule `json:"rules" binding:"required"`
}

func (h *Handler) setAvailability(c *gin.Context) {
	var req availabilityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.repo.SetAvailability(c.Request.Context(), guard.UserID(c), req.Rules); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save availability"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) listTemplates(c *gin.Context) {
	list, err := h.repo.ListTemplates(c.Request.Context(), guard.UserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list templates"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": list})
}

type templateReq struct {
	Title string `json:"title" binding:"required"`
	Body  string `json:"body" binding:"required"`
}

func (h *Handler) createTemplate(c *gin.Context) {
	var req templateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	t := &Template{ExpertID: guard.UserID(c), Title: req.Title, Body: req.Body}
	if err := h.repo.CreateTemplate(c.Request.Context(), t); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create template"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"template": t})
}

func (h *Handler) deleteTemplate(c *gin.Context) {
	ok, err := h.repo.DeleteTemplate(c.Request.Context(), guard.UserID(c), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete template"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "template not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
