package handler

import (
	"fintrack/internal/models"
	"fintrack/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ListCategories returns the seeded categories by name.
func ListCategories(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cats []models.Category
		if err := db.WithContext(c.Request.Context()).Order("name ASC").Find(&cats).Error; err != nil {
			respondError(c, err)
			return
		}
		util.Success(c, util.Response{"categories": cats})
	}
}

// ListMethods returns the money-management methods.
func ListMethods(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var methods []models.Method
		if err := db.WithContext(c.Request.Context()).Order("id ASC").Find(&methods).Error; err != nil {
			respondError(c, err)
			return
		}
		items := make([]gin.H, 0, len(methods))
		for i := range methods {
			items = append(items, methodResp(&methods[i]))
		}
		util.Success(c, util.Response{"methods": items})
	}
}
