package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
)

// requestContext bounds store access of a handler
func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

// attachment marks the response as download named after the device
func attachment(c *gin.Context, device, ext string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=abfall_%s.%s", ReadingName(device), ext))
}
