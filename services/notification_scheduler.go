package services

import (
	"time"

	"github.com/edupoint/school-app/models"
	"github.com/edupoint/school-app/utils"
)

// NotificationScheduler periodically advances pending notifications whose
// schedule time has elapsed into processing and dispatches them.
type NotificationScheduler struct {
	Service  *NotificationService
	Interval time.Duration
	StopChan chan struct{}
}

func NewNotificationScheduler(service *NotificationService) *NotificationScheduler {
	return &NotificationScheduler{
		Service:  service,
		Interval: 30 * time.Second,
		StopChan: make(chan struct{}),
	}
}

func (ns *NotificationScheduler) Start() {
	go func() {
		ticker := time.NewTicker(ns.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ns.RunDue(time.Now())
			case <-ns.StopChan:
				return
			}
		}
	}()
	utils.InfoLogger.Printf("notification scheduler started (interval %s)", ns.Interval)
}

func (ns *NotificationScheduler) Stop() {
	close(ns.StopChan)
}

// RunDue processes every pending notification that is due at the given
// instant. Dispatch failures are logged and left in processing for the
// next operator inspection; they are not retried here.
func (ns *NotificationScheduler) RunDue(now time.Time) {
	due, err := ns.Service.Store.ListDuePending(now)
	if err != nil {
		utils.ErrorLogger.Printf("scheduler: listing due notifications: %v", err)
		return
	}

	for i := range due {
		n := &due[i]
		if err := ns.Service.Store.UpdateDeliveryStatus(n.ID, models.DeliveryProcessing); err != nil {
			utils.ErrorLogger.Printf("scheduler: advancing notification %d: %v", n.ID, err)
			continue
		}
		n.DeliveryStatus = models.DeliveryProcessing
		if err := ns.Service.Dispatch(n); err != nil {
			utils.ErrorLogger.Printf("scheduler: dispatching notification %d: %v", n.ID, err)
			continue
		}
		utils.InfoLogger.Printf("scheduler: notification %d dispatched (%s)", n.ID, n.DeliveryStatus)
	}
}
