package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/edupoint/school-app/models"
	"github.com/edupoint/school-app/rbac"
	"github.com/edupoint/school-app/utils"
)

type AnnouncementController struct {
	DB *gorm.DB
}

func NewAnnouncementController(db *gorm.DB) *AnnouncementController {
	return &AnnouncementController{DB: db}
}

// GetAnnouncements -> active announcements, newest first
func (ac *AnnouncementController) GetAnnouncements(c *gin.Context) {
	skip, limit := pageParams(c, 100)

	var announcements []models.Announcement
	err := ac.DB.
		Where("status = ?", models.ContentStatusActive).
		Order("creation_date DESC").
		Offset(skip).
		Limit(limit).
		Find(&announcements).Error
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Active announcements", announcements)
}

// CreateAnnouncement -> admin or teacher only
func (ac *AnnouncementController) CreateAnnouncement(c *gin.Context) {
	principal, ok := rbac.FromContext(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}

	type request struct {
		Title   string `json:"title" binding:"required"`
		Content string `json:"content" binding:"required"`
	}
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	announcement := models.Announcement{
		Title:        req.Title,
		Content:      req.Content,
		CreatorID:    principal.ID,
		CreationDate: time.Now(),
		Status:       models.ContentStatusActive,
	}

	if err := ac.DB.Create(&announcement).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Announcement %d created by user %d", announcement.ID, principal.ID)

	utils.RespondJSON(c, http.StatusCreated, "Announcement created", announcement)
}

// ArchiveAnnouncement -> admin only; archived announcements disappear
// from every listing but are never deleted.
func (ac *AnnouncementController) ArchiveAnnouncement(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("announcement_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid announcement id"))
		return
	}

	var announcement models.Announcement
	if err := ac.DB.First(&announcement, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	if announcement.Status != models.ContentStatusArchived {
		announcement.Status = models.ContentStatusArchived
		if err := ac.DB.Model(&announcement).Update("status", models.ContentStatusArchived).Error; err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
	}

	utils.RespondJSON(c, http.StatusOK, "Announcement archived", announcement)
}

// pageParams reads skip/limit query parameters, capping limit server-side.
func pageParams(c *gin.Context, maxLimit int) (int, int) {
	skip, err := strconv.Atoi(c.DefaultQuery("skip", "0"))
	if err != nil || skip < 0 {
		skip = 0
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return skip, limit
}
