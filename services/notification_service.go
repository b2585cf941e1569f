package services

import (
	"errors"
	"time"

	"github.com/edupoint/school-app/models"
	"github.com/edupoint/school-app/repository"
	"github.com/edupoint/school-app/utils"
)

var (
	ErrBadTargetType      = errors.New("target_type must be one of: all, role, user")
	ErrMissingTargetRoles = errors.New("target_roles must be provided when target_type is 'role'")
	ErrMissingTargetUsers = errors.New("target_user_ids must be provided when target_type is 'user'")
	ErrNotRecordOwner     = errors.New("delivery record belongs to another user")
)

// NotificationService owns the notification lifecycle: targeting
// validation, persistence, fan-out into per-recipient delivery records
// and the final delivery status. It is the sole writer of
// delivery_status.
type NotificationService struct {
	Store repository.Store
	Push  PushSender
}

func NewNotificationService(store repository.Store, push PushSender) *NotificationService {
	return &NotificationService{Store: store, Push: push}
}

type CreateNotificationInput struct {
	Title         string
	Content       string
	TargetType    string
	TargetRoles   []string
	TargetUserIDs []uint
	ScheduleTime  *time.Time
}

// ValidateTargeting checks that exactly the targeting fields required by
// the target type are present. Runs before anything is persisted.
func ValidateTargeting(in CreateNotificationInput) error {
	switch in.TargetType {
	case models.TargetAll:
		return nil
	case models.TargetRole:
		if len(in.TargetRoles) == 0 {
			return ErrMissingTargetRoles
		}
		return nil
	case models.TargetUser:
		if len(in.TargetUserIDs) == 0 {
			return ErrMissingTargetUsers
		}
		return nil
	default:
		return ErrBadTargetType
	}
}

// Create persists a notification and, unless it is scheduled for the
// future, dispatches it synchronously. The returned notification carries
// the final delivery status; a dispatch that resolved zero recipients
// comes back as failed, not as a request error.
func (s *NotificationService) Create(creatorID uint, in CreateNotificationInput) (*models.Notification, error) {
	if err := ValidateTargeting(in); err != nil {
		return nil, err
	}

	now := time.Now()
	n := &models.Notification{
		Title:         in.Title,
		Content:       in.Content,
		CreatorID:     creatorID,
		CreationDate:  now,
		TargetType:    in.TargetType,
		TargetRoles:   in.TargetRoles,
		TargetUserIDs: in.TargetUserIDs,
		ScheduleTime:  in.ScheduleTime,
		Status:        models.ContentStatusActive,
	}

	if in.ScheduleTime != nil && in.ScheduleTime.After(now) {
		n.DeliveryStatus = models.DeliveryPending
	} else {
		n.DeliveryStatus = models.DeliveryProcessing
	}

	if err := s.Store.CreateNotification(n); err != nil {
		return nil, err
	}

	if n.DeliveryStatus == models.DeliveryProcessing {
		if err := s.Dispatch(n); err != nil {
			return n, err
		}
	}
	return n, nil
}

// ResolveTargets expands the notification's targeting into concrete
// recipients. Pure read over the current user universe: resolving twice
// yields the same set. Unknown ids under a user target are dropped and
// counted, not treated as errors.
func (s *NotificationService) ResolveTargets(n *models.Notification) ([]models.User, int, error) {
	switch n.TargetType {
	case models.TargetAll:
		users, err := s.Store.ListActiveUsers()
		return users, 0, err
	case models.TargetRole:
		if len(n.TargetRoles) == 0 {
			return nil, 0, ErrMissingTargetRoles
		}
		users, err := s.Store.ListUsersByRoles(n.TargetRoles)
		return users, 0, err
	case models.TargetUser:
		if len(n.TargetUserIDs) == 0 {
			return nil, 0, ErrMissingTargetUsers
		}
		// target_user_ids is a set; repeating an id must not inflate
		// the missing count and demote a full delivery to partial.
		ids := dedupeIDs(n.TargetUserIDs)
		users, err := s.Store.ListUsersByIDs(ids)
		if err != nil {
			return nil, 0, err
		}
		return users, len(ids) - len(users), nil
	default:
		return nil, 0, ErrBadTargetType
	}
}

func dedupeIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// Dispatch advances a processing notification to its terminal delivery
// status. A storage failure during materialization is returned to the
// caller and leaves the notification in processing so it can be
// inspected or retried by an operator; it is never silently marked sent.
func (s *NotificationService) Dispatch(n *models.Notification) error {
	recipients, missing, err := s.ResolveTargets(n)
	if err != nil {
		if statusErr := s.Store.UpdateDeliveryStatus(n.ID, models.DeliveryFailed); statusErr != nil {
			return statusErr
		}
		n.DeliveryStatus = models.DeliveryFailed
		return nil
	}

	if len(recipients) == 0 {
		if err := s.Store.UpdateDeliveryStatus(n.ID, models.DeliveryFailed); err != nil {
			return err
		}
		n.DeliveryStatus = models.DeliveryFailed
		return nil
	}

	ids := make([]uint, 0, len(recipients))
	for _, u := range recipients {
		ids = append(ids, u.ID)
	}

	created, alreadyPresent, err := s.Store.InsertDeliveryRecords(n.ID, ids, time.Now())
	if err != nil {
		return err
	}
	if alreadyPresent > 0 {
		utils.InfoLogger.Printf("notification %d: created %d delivery records, %d already present", n.ID, created, alreadyPresent)
	}

	pushFailed := 0
	if s.Push != nil {
		for _, u := range recipients {
			if err := s.Push.Send(u, n.Title, n.Content); err != nil {
				utils.ErrorLogger.Printf("push to user %d failed for notification %d: %v", u.ID, n.ID, err)
				pushFailed++
			}
		}
	}

	status := models.DeliverySent
	if missing > 0 || pushFailed > 0 {
		status = models.DeliveryPartiallySent
	}
	if err := s.Store.UpdateDeliveryStatus(n.ID, status); err != nil {
		return err
	}
	n.DeliveryStatus = status
	return nil
}

// Feed lists a recipient's delivery records joined with their active
// notifications, newest first.
func (s *NotificationService) Feed(userID uint, unreadOnly bool, offset, limit int) ([]models.UserNotification, error) {
	return s.Store.ListUserFeed(userID, unreadOnly, offset, limit)
}

// MarkRead flips a delivery record to read. Only the owning recipient
// may do so.
func (s *NotificationService) MarkRead(recordID, requesterID uint) (*models.UserNotification, error) {
	record, err := s.Store.GetDeliveryRecord(recordID)
	if err != nil {
		return nil, err
	}
	if record.UserID != requesterID {
		return nil, ErrNotRecordOwner
	}
	if record.ReadStatus != models.ReadStatusRead {
		if err := s.Store.MarkRecordRead(recordID); err != nil {
			return nil, err
		}
		record.ReadStatus = models.ReadStatusRead
	}
	return record, nil
}
