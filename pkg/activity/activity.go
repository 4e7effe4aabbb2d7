package activity

import (
	"time"

	"github.com/fieldplan/fieldplan/pkg/schedule"
)

type Activity struct {
	Id        int
	ProjectId int
	// ParentId is 0 for top-level activities, otherwise the activity this one is a sub-activity of.
	ParentId  int
	Phase     string
	Name      string
	StartDate time.Time
	EndDate   time.Time
	// WorkingDays decides which days between StartDate and EndDate count toward DurationDays.
	WorkingDays schedule.WorkingDaysPolicy
	// DurationDays is derived from the dates and WorkingDays on every write.
	DurationDays int
	Production   Production
	Position     int
}

// Production is the crew and equipment production plan of an activity.
type Production struct {
	Unit           string
	TotalUnits     float64
	Method         schedule.ForecastMethod
	CrewSize       int
	EquipmentCount int
}

type PhaseSummary struct {
	Phase         string
	ActivityCount int
	StartDate     time.Time
	EndDate       time.Time
	DurationDays  int
	TotalUnits    float64
}

type CrewRate struct {
	UnitsPerDay          float64
	UnitsPerCrewDay      float64
	UnitsPerEquipmentDay float64
}

func (a Activity) IsSubActivity() bool {
	return a.ParentId != 0
}

// schedulingChanged reports whether anything affecting the forecast differs between a and other.
func (a Activity) schedulingChanged(other Activity) bool {
	return !a.StartDate.Equal(other.StartDate) ||
		!a.EndDate.Equal(other.EndDate) ||
		a.WorkingDays != other.WorkingDays ||
		a.Production.TotalUnits != other.Production.TotalUnits ||
		a.Production.Method != other.Production.Method
}
