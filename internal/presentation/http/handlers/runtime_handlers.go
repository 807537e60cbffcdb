package handlers

import (
	_ "embed"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed runtime/styletree.js
var runtimeScript []byte

// GetRuntimeScript handles GET /runtime/styletree.js
func GetRuntimeScript(c *gin.Context) {
	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "application/javascript; charset=utf-8", runtimeScript)
}
