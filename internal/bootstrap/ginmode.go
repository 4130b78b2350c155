package bootstrap

import "github.com/gin-gonic/gin"

// SetGinMode maps APP_ENV to the gin mode: release in production,
// test under the test environment, gin's debug default otherwise.
func SetGinMode(env string) {
	switch env {
	case "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	}
}
