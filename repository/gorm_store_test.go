package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/edupoint/school-app/models"
)

func setupStore(t *testing.T) *GormStore {
	t.Helper()
	dsn := fmt.Sprintf("file:store_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	err = db.AutoMigrate(&models.User{}, &models.Notification{}, &models.UserNotification{})
	if err != nil {
		t.Fatal(err)
	}
	return NewGormStore(db)
}

func seedUsers(t *testing.T, store *GormStore, roles ...models.Role) []models.User {
	t.Helper()
	users := make([]models.User, 0, len(roles))
	for i, role := range roles {
		user := models.User{
			Name:     fmt.Sprintf("User %d", i+1),
			Email:    fmt.Sprintf("user%d@%s.example.com", i+1, t.Name()),
			Password: "secret",
			Role:     role,
		}
		if err := store.DB.Create(&user).Error; err != nil {
			t.Fatal(err)
		}
		users = append(users, user)
	}
	return users
}

func TestInsertDeliveryRecordsIsIdempotent(t *testing.T) {
	store := setupStore(t)
	users := seedUsers(t, store, models.RoleStudent, models.RoleTeacher, models.RoleParent)

	notif := models.Notification{
		Title:          "Exam Reminder",
		Content:        "Math exam tomorrow",
		CreatorID:      users[0].ID,
		CreationDate:   time.Now(),
		TargetType:     models.TargetAll,
		DeliveryStatus: models.DeliveryProcessing,
		Status:         models.ContentStatusActive,
	}
	assert.NoError(t, store.CreateNotification(&notif))

	ids := []uint{users[0].ID, users[1].ID, users[2].ID}

	created, alreadyPresent, err := store.InsertDeliveryRecords(notif.ID, ids, time.Now())
	assert.NoError(t, err)
	assert.EqualValues(t, 3, created)
	assert.EqualValues(t, 0, alreadyPresent)

	// Re-materializing after a retry must create nothing new.
	created, alreadyPresent, err = store.InsertDeliveryRecords(notif.ID, ids, time.Now())
	assert.NoError(t, err)
	assert.EqualValues(t, 0, created)
	assert.EqualValues(t, 3, alreadyPresent)

	var total int64
	store.DB.Model(&models.UserNotification{}).Where("notification_id = ?", notif.ID).Count(&total)
	assert.EqualValues(t, 3, total)
}

func TestInsertDeliveryRecordsPartialOverlap(t *testing.T) {
	store := setupStore(t)
	users := seedUsers(t, store, models.RoleStudent, models.RoleStudent)

	notif := models.Notification{
		Title:          "Overlap",
		Content:        "x",
		CreatorID:      users[0].ID,
		CreationDate:   time.Now(),
		TargetType:     models.TargetAll,
		DeliveryStatus: models.DeliveryProcessing,
		Status:         models.ContentStatusActive,
	}
	assert.NoError(t, store.CreateNotification(&notif))

	created, alreadyPresent, err := store.InsertDeliveryRecords(notif.ID, []uint{users[0].ID}, time.Now())
	assert.NoError(t, err)
	assert.EqualValues(t, 1, created)
	assert.EqualValues(t, 0, alreadyPresent)

	// Second batch overlaps on the first recipient; only the new one lands.
	created, alreadyPresent, err = store.InsertDeliveryRecords(notif.ID, []uint{users[0].ID, users[1].ID}, time.Now())
	assert.NoError(t, err)
	assert.EqualValues(t, 1, created)
	assert.EqualValues(t, 1, alreadyPresent)
}

func TestListUserFeedOrderingAndFilters(t *testing.T) {
	store := setupStore(t)
	users := seedUsers(t, store, models.RoleStudent)
	student := users[0]

	base := time.Now().Add(-time.Hour)
	mkNotif := func(title, status string) models.Notification {
		n := models.Notification{
			Title:          title,
			Content:        "content",
			CreatorID:      1,
			CreationDate:   base,
			TargetType:     models.TargetAll,
			DeliveryStatus: models.DeliverySent,
			Status:         status,
		}
		assert.NoError(t, store.CreateNotification(&n))
		return n
	}

	older := mkNotif("older", models.ContentStatusActive)
	newer := mkNotif("newer", models.ContentStatusActive)
	archived := mkNotif("archived", models.ContentStatusArchived)

	for i, n := range []models.Notification{older, newer, archived} {
		rec := models.UserNotification{
			UserID:         student.ID,
			NotificationID: n.ID,
			ReadStatus:     models.ReadStatusUnread,
			ReceivedAt:     base.Add(time.Duration(i) * time.Minute),
		}
		assert.NoError(t, store.DB.Create(&rec).Error)
	}

	// Mark the older one read.
	var olderRec models.UserNotification
	assert.NoError(t, store.DB.Where("notification_id = ?", older.ID).First(&olderRec).Error)
	assert.NoError(t, store.MarkRecordRead(olderRec.ID))

	// Archived notifications never appear; newest first.
	feed, err := store.ListUserFeed(student.ID, false, 0, 20)
	assert.NoError(t, err)
	assert.Len(t, feed, 2)
	assert.Equal(t, "newer", feed[0].Notification.Title)
	assert.Equal(t, "older", feed[1].Notification.Title)

	// unread_only drops the read record.
	feed, err = store.ListUserFeed(student.ID, true, 0, 20)
	assert.NoError(t, err)
	assert.Len(t, feed, 1)
	assert.Equal(t, "newer", feed[0].Notification.Title)

	// Pagination.
	feed, err = store.ListUserFeed(student.ID, false, 1, 1)
	assert.NoError(t, err)
	assert.Len(t, feed, 1)
	assert.Equal(t, "older", feed[0].Notification.Title)
}

func TestListDuePending(t *testing.T) {
	store := setupStore(t)
	now := time.Now()

	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	due := models.Notification{
		Title: "due", Content: "x", CreatorID: 1, CreationDate: now,
		TargetType: models.TargetAll, ScheduleTime: &past,
		DeliveryStatus: models.DeliveryPending, Status: models.ContentStatusActive,
	}
	notYet := models.Notification{
		Title: "not yet", Content: "x", CreatorID: 1, CreationDate: now,
		TargetType: models.TargetAll, ScheduleTime: &future,
		DeliveryStatus: models.DeliveryPending, Status: models.ContentStatusActive,
	}
	alreadySent := models.Notification{
		Title: "sent", Content: "x", CreatorID: 1, CreationDate: now,
		TargetType: models.TargetAll, ScheduleTime: &past,
		DeliveryStatus: models.DeliverySent, Status: models.ContentStatusActive,
	}
	for _, n := range []*models.Notification{&due, &notYet, &alreadySent} {
		assert.NoError(t, store.CreateNotification(n))
	}

	pending, err := store.ListDuePending(now)
	assert.NoError(t, err)
	assert.Len(t, pending, 1)
	assert.Equal(t, "due", pending[0].Title)
}
