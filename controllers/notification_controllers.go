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
	"github.com/edupoint/school-app/repository"
	"github.com/edupoint/school-app/services"
	"github.com/edupoint/school-app/utils"
)

type NotificationController struct {
	DB      *gorm.DB
	Service *services.NotificationService
}

func NewNotificationController(db *gorm.DB, push services.PushSender) *NotificationController {
	return &NotificationController{
		DB:      db,
		Service: services.NewNotificationService(repository.NewGormStore(db), push),
	}
}

// CreateNotification validates targeting first, then authorization, then
// persists and dispatches. Scheduled notifications stay pending until the
// scheduler picks them up.
func (nc *NotificationController) CreateNotification(c *gin.Context) {
	type request struct {
		Title         string     `json:"title" binding:"required"`
		Content       string     `json:"content" binding:"required"`
		TargetType    string     `json:"target_type" binding:"required"`
		TargetRoles   []string   `json:"target_roles"`
		TargetUserIDs []uint     `json:"target_user_ids"`
		ScheduleTime  *time.Time `json:"schedule_time"`
	}
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	input := services.CreateNotificationInput{
		Title:         req.Title,
		Content:       req.Content,
		TargetType:    req.TargetType,
		TargetRoles:   req.TargetRoles,
		TargetUserIDs: req.TargetUserIDs,
		ScheduleTime:  req.ScheduleTime,
	}

	// Targeting problems are rejected before any state is persisted and
	// before the role gate, so a malformed request reads the same to
	// every caller.
	if err := services.ValidateTargeting(input); err != nil {
		utils.RespondError(c, http.StatusUnprocessableEntity, err)
		return
	}

	principal, ok := rbac.FromContext(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}
	if dec := rbac.Authorize(principal, []models.Role{models.RoleAdmin}, nil); !dec.Allowed {
		utils.RespondError(c, http.StatusForbidden, dec.Reason)
		return
	}

	notif, err := nc.Service.Create(principal.ID, input)
	if err != nil {
		// Storage failure mid-dispatch: the notification stays in
		// processing for operator inspection.
		utils.ErrorLogger.Printf("notification create failed: %v", err)
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Notification %d created by user %d (delivery_status=%s)", notif.ID, principal.ID, notif.DeliveryStatus)

	utils.RespondJSON(c, http.StatusCreated, "Notification created", notif)
}

// GetAllNotifications -> admin audit listing
func (nc *NotificationController) GetAllNotifications(c *gin.Context) {
	var notifs []models.Notification
	if err := nc.DB.Order("creation_date DESC").Find(&notifs).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "All notifications", notifs)
}

// GetMyNotifications -> the requester's delivery records joined with
// their active notifications, newest first
func (nc *NotificationController) GetMyNotifications(c *gin.Context) {
	principal, ok := rbac.FromContext(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}

	skip, limit := pageParams(c, 100)
	unreadOnly := c.DefaultQuery("unread_only", "false") == "true"

	records, err := nc.Service.Feed(principal.ID, unreadOnly, skip, limit)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "My notifications", records)
}

// MarkNotificationRead -> only the owning recipient
func (nc *NotificationController) MarkNotificationRead(c *gin.Context) {
	principal, ok := rbac.FromContext(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}

	recordID, err := strconv.Atoi(c.Param("record_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid record id"))
		return
	}

	record, err := nc.Service.MarkRead(uint(recordID), principal.ID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotRecordOwner):
			utils.RespondError(c, http.StatusForbidden, err)
		case errors.Is(err, gorm.ErrRecordNotFound):
			utils.RespondError(c, http.StatusNotFound, err)
		default:
			utils.RespondError(c, http.StatusInternalServerError, err)
		}
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Notification marked as read", record)
}
