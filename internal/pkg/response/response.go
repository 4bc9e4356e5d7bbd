package response

import "github.com/gin-gonic/gin"

// Error writes the service's error envelope: a machine-readable kind slug
// plus a human message.
func Error(c *gin.Context, statusCode int, kind string, message string) {
	c.JSON(statusCode, gin.H{
		"error":   kind,
		"message": message,
	})
}

func ErrorWithDetails(c *gin.Context, statusCode int, kind string, message string, details any) {
	c.JSON(statusCode, gin.H{
		"error":   kind,
		"message": message,
		"details": details,
	})
}
