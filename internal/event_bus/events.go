package event_bus

import "time"

const (
	ActivityDeletedEvent     EventType = "activity.deleted"
	ActivityRescheduledEvent EventType = "activity.rescheduled"
)

type ActivityDeleted struct {
	Id        int
	ProjectId int
}

// ActivityRescheduled is published when dates, working days or the production target of an activity change.
type ActivityRescheduled struct {
	Id           int
	ProjectId    int
	StartDate    time.Time
	EndDate      time.Time
	DurationDays int
	TotalUnits   float64
}
