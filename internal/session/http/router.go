package http

import (
	"github.com/gin-gonic/gin"

	"github.com/expert-buddy/expertbuddy-backend/internal/guard"
)

// RegisterAuth attaches the credential routes. The caller applies the
// rate limiter to the group.
func (h *Handler) RegisterAuth(rg *gin.RouterGroup) {
	rg.POST("/signup", h.SignUp)
	rg.POST("/signin", h.SignIn)
	rg.POST("/signout", h.SignOut)
}

// RegisterMe attaches the signed-in profile routes behind the guard.
func (h *Handler) RegisterMe(rg *gin.RouterGroup) {
	me := rg.Group("/me")
	me.Use(guard.RequireRole(h.registry, guard.Any))
	me.GET("", h.Me)
	me.PUT("/profile", h.UpdateProfile)
	me.POST("/avatar", h.UploadAvatar)
}
