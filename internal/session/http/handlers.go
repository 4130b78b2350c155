package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/expert-buddy/expertbuddy-backend/internal/guard"
	"github.com/expert-buddy/expertbuddy-backend/internal/httpmw"
	"github.com/expert-buddy/expertbuddy-backend/internal/session/domain"
	"github.com/expert-buddy/expertbuddy-backend/internal/session/service"
)

const maxAvatarBytes = 5 << 20

// logError records a failed operation with the request id so the error
// can be matched to the request log line.
func logError(c *gin.Context, op string, err error) {
	log.Printf("session: %s failed req=%s: %v", op, httpmw.GetRequestID(c.Request.Context()), err)
}

func (h *Handler) manager(c *gin.Context) (*service.Manager, bool) {
	clientID := c.GetString(guard.CtxClientID)
	if clientID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing client id"})
		return nil, false
	}

	mgr, err := h.registry.Get(c.Request.Context(), clientID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session lookup failed"})
		return nil, false
	}
	return mgr, true
}

// SignUp registers a new account and signs it in.
func (h *Handler) SignUp(c *gin.Context) {
	mgr, ok := h.manager(c)
	if !ok {
		return
	}

	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	role := domain.Role(req.Role)
	if req.Role != "" && !role.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be client or expert"})
		return
	}

	s, err := mgr.SignUp(c.Request.Context(), domain.Registration{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      role,
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}
		logError(c, "sign up", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sign up failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"session": s})
}

// SignIn authenticates credentials and starts a session.
func (h *Handler) SignIn(c *gin.Context) {
	mgr, ok := h.manager(c)
	if !ok {
		return
	}

	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	s, err := mgr.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAuthentication):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		case errors.Is(err, domain.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "no account found for this email"})
		default:
			logError(c, "sign in", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "sign in failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": s})
}

// SignOut ends the current session. Idempotent.
func (h *Handler) SignOut(c *gin.Context) {
	mgr, ok := h.manager(c)
	if !ok {
		return
	}

	if err := mgr.SignOut(c.Request.Context()); err != nil {
		logError(c, "sign out", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sign out failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Me returns the current session and derived flags.
func (h *Handler) Me(c *gin.Context) {
	mgr, ok := h.manager(c)
	if !ok {
		return
	}

	s := mgr.Current()
	if s == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session":          s,
		"authenticated":    true,
		"profile_complete": s.ProfileComplete,
		"state":            mgr.State(),
	})
}

// UpdateProfile merges partial profile fields into the session.
func (h *Handler) UpdateProfile(c *gin.Context) {
	mgr, ok := h.manager(c)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	s, err := mgr.UpdateProfile(c.Request.Context(), domain.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Location:  req.Location,
		Bio:       req.Bio,
		Expertise: req.Expertise,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNoSession) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
			return
		}
		logError(c, "profile update", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile update failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": s})
}

// UploadAvatar stores the uploaded image and records its URL.
func (h *Handler) UploadAvatar(c *gin.Context) {
	mgr, ok := h.manager(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "avatar file is required"})
		return
	}
	defer file.Close()

	if header.Size > maxAvatarBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "avatar exceeds 5MB limit"})
		return
	}

	contentType := header.Header.Get("Content-Type")
	url, err := mgr.UploadAvatar(c.Request.Context(), file, header.Size, contentType)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoSession):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
		case errors.Is(err, domain.ErrUpload):
			logError(c, "avatar upload", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "avatar upload failed"})
		default:
			logError(c, "avatar upload", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "avatar upload failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"avatar_url": url})
}
