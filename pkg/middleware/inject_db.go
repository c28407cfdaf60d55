package middleware

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const DbField = "db"

// InjectDB puts the shared gorm handle on the request context.
func InjectDB(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(DbField, db)
		c.Next()
	}
}
