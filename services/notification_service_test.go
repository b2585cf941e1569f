package services

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/edupoint/school-app/models"
	"github.com/edupoint/school-app/repository"
	"github.com/edupoint/school-app/utils"
)

// failingPushSender simulates a push transport that rejects chosen
// recipients.
type failingPushSender struct {
	failFor map[uint]bool
	sent    []uint
}

func (f *failingPushSender) Send(recipient models.User, title, content string) error {
	if f.failFor[recipient.ID] {
		return errors.New("device unreachable")
	}
	f.sent = append(f.sent, recipient.ID)
	return nil
}

func setupService(t *testing.T) (*NotificationService, *repository.GormStore) {
	t.Helper()
	utils.InitLogger()

	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Notification{}, &models.UserNotification{}); err != nil {
		t.Fatal(err)
	}

	store := repository.NewGormStore(db)
	return NewNotificationService(store, LogPushSender{}), store
}

func seedUser(t *testing.T, store *repository.GormStore, id uint, role models.Role) models.User {
	t.Helper()
	user := models.User{
		ID:       id,
		Name:     fmt.Sprintf("User %d", id),
		Email:    fmt.Sprintf("user%d@%s.example.com", id, t.Name()),
		Password: "secret",
		Role:     role,
	}
	if err := store.DB.Create(&user).Error; err != nil {
		t.Fatal(err)
	}
	return user
}

func TestValidateTargeting(t *testing.T) {
	tests := []struct {
		name  string
		input CreateNotificationInput
		want  error
	}{
		{"all needs nothing", CreateNotificationInput{TargetType: models.TargetAll}, nil},
		{"role with roles", CreateNotificationInput{TargetType: models.TargetRole, TargetRoles: []string{"student"}}, nil},
		{"role without roles", CreateNotificationInput{TargetType: models.TargetRole}, ErrMissingTargetRoles},
		{"user with ids", CreateNotificationInput{TargetType: models.TargetUser, TargetUserIDs: []uint{1}}, nil},
		{"user without ids", CreateNotificationInput{TargetType: models.TargetUser}, ErrMissingTargetUsers},
		{"unknown type", CreateNotificationInput{TargetType: "everyone"}, ErrBadTargetType},
		{"empty type", CreateNotificationInput{}, ErrBadTargetType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateTargeting(tt.input))
		})
	}
}

func TestCreateTargetAllDeliversToEveryone(t *testing.T) {
	svc, store := setupService(t)
	admin := seedUser(t, store, 1, models.RoleAdmin)
	seedUser(t, store, 2, models.RoleStudent)
	seedUser(t, store, 3, models.RoleParent)

	notif, err := svc.Create(admin.ID, CreateNotificationInput{
		Title:      "School closed",
		Content:    "Snow day tomorrow",
		TargetType: models.TargetAll,
	})
	assert.NoError(t, err)
	assert.Equal(t, models.DeliverySent, notif.DeliveryStatus)
	assert.Equal(t, admin.ID, notif.CreatorID)

	var count int64
	store.DB.Model(&models.UserNotification{}).Where("notification_id = ?", notif.ID).Count(&count)
	assert.EqualValues(t, 3, count)
}

func TestCreateTargetRoleResolvesUnion(t *testing.T) {
	svc, store := setupService(t)
	admin := seedUser(t, store, 1, models.RoleAdmin)
	student := seedUser(t, store, 2, models.RoleStudent)
	teacher := seedUser(t, store, 3, models.RoleTeacher)
	seedUser(t, store, 4, models.RoleParent)

	notif, err := svc.Create(admin.ID, CreateNotificationInput{
		Title:       "Exam schedule",
		Content:     "Published",
		TargetType:  models.TargetRole,
		TargetRoles: []string{"student", "teacher"},
	})
	assert.NoError(t, err)
	assert.Equal(t, models.DeliverySent, notif.DeliveryStatus)

	var records []models.UserNotification
	store.DB.Where("notification_id = ?", notif.ID).Find(&records)
	got := make([]uint, 0, len(records))
	for _, r := range records {
		got = append(got, r.UserID)
	}
	assert.ElementsMatch(t, []uint{student.ID, teacher.ID}, got)
}

func TestCreateTargetUserUnknownIDsArePartial(t *testing.T) {
	svc, store := setupService(t)
	admin := seedUser(t, store, 1, models.RoleAdmin)
	known := seedUser(t, store, 101, models.RoleStudent)

	notif, err := svc.Create(admin.ID, CreateNotificationInput{
		Title:         "Library books due",
		Content:       "Return by Friday",
		TargetType:    models.TargetUser,
		TargetUserIDs: []uint{known.ID, 9999},
	})
	assert.NoError(t, err)
	assert.Equal(t, models.DeliveryPartiallySent, notif.DeliveryStatus)

	var records []models.UserNotification
	store.DB.Where("notification_id = ?", notif.ID).Find(&records)
	assert.Len(t, records, 1)
	assert.Equal(t, known.ID, records[0].UserID)
}

func TestCreateTargetUserDuplicateIDsCountOnce(t *testing.T) {
	svc, store := setupService(t)
	admin := seedUser(t, store, 1, models.RoleAdmin)
	student := seedUser(t, store, 101, models.RoleStudent)

	// Repeating an id must not register as an unknown recipient.
	notif, err := svc.Create(admin.ID, CreateNotificationInput{
		Title:         "Permission slip",
		Content:       "Sign and return",
		TargetType:    models.TargetUser,
		TargetUserIDs: []uint{student.ID, student.ID},
	})
	assert.NoError(t, err)
	assert.Equal(t, models.DeliverySent, notif.DeliveryStatus)

	var records []models.UserNotification
	store.DB.Where("notification_id = ?", notif.ID).Find(&records)
	assert.Len(t, records, 1)
	assert.Equal(t, student.ID, records[0].UserID)
}

func TestCreateEmptyRoleTargetFailsBeforePersisting(t *testing.T) {
	svc, store := setupService(t)
	admin := seedUser(t, store, 1, models.RoleAdmin)

	_, err := svc.Create(admin.ID, CreateNotificationInput{
		Title:      "Broken",
		Content:    "x",
		TargetType: models.TargetRole,
	})
	assert.ErrorIs(t, err, ErrMissingTargetRoles)

	var notifCount, recordCount int64
	store.DB.Model(&models.Notification{}).Count(&notifCount)
	store.DB.Model(&models.UserNotification{}).Count(&recordCount)
	assert.Zero(t, notifCount)
	assert.Zero(t, recordCount)
}

func TestCreateNoRecipientsIsFailed(t *testing.T) {
	svc, store := setupService(t)
	admin := seedUser(t, store, 1, models.RoleAdmin)

	// Nobody holds the guest role.
	notif, err := svc.Create(admin.ID, CreateNotificationInput{
		Title:       "Into the void",
		Content:     "x",
		TargetType:  models.TargetRole,
		TargetRoles: []string{"guest"},
	})
	assert.NoError(t, err)
	assert.Equal(t, models.DeliveryFailed, notif.DeliveryStatus)

	var count int64
	store.DB.Model(&models.UserNotification{}).Count(&count)
	assert.Zero(t, count)
}

func TestCreateScheduledStaysPending(t *testing.T) {
	svc, store := setupService(t)
	admin := seedUser(t, store, 1, models.RoleAdmin)
	seedUser(t, store, 2, models.RoleStudent)

	future := time.Now().Add(time.Hour)
	notif, err := svc.Create(admin.ID, CreateNotificationInput{
		Title:        "Later",
		Content:      "x",
		TargetType:   models.TargetAll,
		ScheduleTime: &future,
	})
	assert.NoError(t, err)
	assert.Equal(t, models.DeliveryPending, notif.DeliveryStatus)

	var count int64
	store.DB.Model(&models.UserNotification{}).Count(&count)
	assert.Zero(t, count, "scheduled notification must not fan out at creation")
}

func TestDispatchIsIdempotent(t *testing.T) {
	svc, store := setupService(t)
	admin := seedUser(t, store, 1, models.RoleAdmin)
	seedUser(t, store, 2, models.RoleStudent)
	seedUser(t, store, 3, models.RoleStudent)

	notif, err := svc.Create(admin.ID, CreateNotificationInput{
		Title:      "Once only",
		Content:    "x",
		TargetType: models.TargetAll,
	})
	assert.NoError(t, err)

	// A retry after a crash re-runs dispatch over the same target set.
	assert.NoError(t, svc.Dispatch(notif))

	var count int64
	store.DB.Model(&models.UserNotification{}).Where("notification_id = ?", notif.ID).Count(&count)
	assert.EqualValues(t, 3, count)
}

func TestDispatchPushFailureIsPartial(t *testing.T) {
	svc, store := setupService(t)
	admin := seedUser(t, store, 1, models.RoleAdmin)
	flaky := seedUser(t, store, 2, models.RoleStudent)

	push := &failingPushSender{failFor: map[uint]bool{flaky.ID: true}}
	svc.Push = push

	notif, err := svc.Create(admin.ID, CreateNotificationInput{
		Title:      "Push trouble",
		Content:    "x",
		TargetType: models.TargetAll,
	})
	assert.NoError(t, err)
	assert.Equal(t, models.DeliveryPartiallySent, notif.DeliveryStatus)

	// Delivery records still exist for every recipient; push failures do
	// not remove them.
	var count int64
	store.DB.Model(&models.UserNotification{}).Where("notification_id = ?", notif.ID).Count(&count)
	assert.EqualValues(t, 2, count)
}

func TestMarkReadOwnership(t *testing.T) {
	svc, store := setupService(t)
	admin := seedUser(t, store, 1, models.RoleAdmin)
	student := seedUser(t, store, 2, models.RoleStudent)

	notif, err := svc.Create(admin.ID, CreateNotificationInput{
		Title:         "For the student",
		Content:       "x",
		TargetType:    models.TargetUser,
		TargetUserIDs: []uint{student.ID},
	})
	assert.NoError(t, err)

	var record models.UserNotification
	assert.NoError(t, store.DB.Where("notification_id = ?", notif.ID).First(&record).Error)

	// Someone else cannot mark it read.
	_, err = svc.MarkRead(record.ID, admin.ID)
	assert.ErrorIs(t, err, ErrNotRecordOwner)

	updated, err := svc.MarkRead(record.ID, student.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.ReadStatusRead, updated.ReadStatus)

	// Marking twice is a no-op, not an error.
	updated, err = svc.MarkRead(record.ID, student.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.ReadStatusRead, updated.ReadStatus)
}

func TestSchedulerRunDue(t *testing.T) {
	svc, store := setupService(t)
	admin := seedUser(t, store, 1, models.RoleAdmin)
	student := seedUser(t, store, 2, models.RoleStudent)

	future := time.Now().Add(time.Hour)
	notif, err := svc.Create(admin.ID, CreateNotificationInput{
		Title:         "Scheduled",
		Content:       "x",
		TargetType:    models.TargetUser,
		TargetUserIDs: []uint{student.ID},
		ScheduleTime:  &future,
	})
	assert.NoError(t, err)
	assert.Equal(t, models.DeliveryPending, notif.DeliveryStatus)

	scheduler := NewNotificationScheduler(svc)

	// Before the schedule time nothing moves.
	scheduler.RunDue(time.Now())
	var current models.Notification
	assert.NoError(t, store.DB.First(&current, notif.ID).Error)
	assert.Equal(t, models.DeliveryPending, current.DeliveryStatus)

	// Once due, the notification is dispatched to its recipient.
	scheduler.RunDue(future.Add(time.Minute))
	assert.NoError(t, store.DB.First(&current, notif.ID).Error)
	assert.Equal(t, models.DeliverySent, current.DeliveryStatus)

	var count int64
	store.DB.Model(&models.UserNotification{}).Where("notification_id = ?", notif.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}
