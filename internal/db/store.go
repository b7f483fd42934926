// exposes the Store interface consumed by API modules
package db

import (
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/daygrid/daygrid/internal/model"
)

// ItemInput is the wire shape of one scheduler item on create/update.
// Target/start date fields mirror the legacy client payloads; normalization
// into a single rule happens in the recurrence package.
type ItemInput struct {
	Title       string  `json:"title" binding:"required"`
	Description *string `json:"description"`
	StartTime   *string `json:"start_time"`
	EndTime     *string `json:"end_time"`
	DayOfWeek   *int    `json:"day_of_week"`
	TargetDate  *string `json:"target_date"`
	StartDate   *string `json:"start_date"`
	ItemStart   *string `json:"item_start_date"`
	ItemEnd     *string `json:"item_end_date"`
	Recurrence  string  `json:"recurrence_type"`
	Interval    int     `json:"recurrence_interval"`
	Color       string  `json:"color"`
	Priority    int     `json:"priority"`
	OrderIndex  int     `json:"order_index"`
}

// OccurrenceFields is the optional field subset of a single-occurrence
// modification. Nil members are left untouched.
type OccurrenceFields struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	StartTime   *string `json:"start_time"`
	EndTime     *string `json:"end_time"`
	Color       *string `json:"color"`
	Notes       *string `json:"notes"`
}

// Empty reports whether no modification field is set.
func (f OccurrenceFields) Empty() bool {
	return f.Title == nil && f.Description == nil && f.StartTime == nil &&
		f.EndTime == nil && f.Color == nil && f.Notes == nil
}

type Store interface {
	// user functions
	CreateUser(username, email, hashedPassword string) (int, error)
	GetUserByEmail(email string) (*model.User, error)
	GetUserByID(id int) (*model.User, error)
	UpdateUserProfile(id int, username, email string) error
	ListUsers() ([]model.User, error)
	SetUserRole(id int, role string) error
	DeleteUser(id int) error

	// scheduler functions
	CreateScheduler(userID int, title string, description, category *string, isPublic bool) (model.Scheduler, error)
	GetScheduler(id int) (*model.Scheduler, error)
	UpdateScheduler(id int, title string, description, category *string, isPublic bool) (model.Scheduler, error)
	DeleteScheduler(id int) error
	ListSchedulersByUser(userID int) ([]model.Scheduler, error)
	BrowseSchedulers(category *string, limit, offset int) ([]model.Scheduler, error)
	PopularSchedulers(limit int) ([]model.Scheduler, error)
	TrendingSchedulers(since time.Time, limit int) ([]model.Scheduler, error)
	CategoryCounts() ([]model.CategoryCount, error)

	// scheduler item functions
	ReplaceSchedulerItems(schedulerID int, items []ItemInput, today time.Time) ([]model.SchedulerItem, error)
	ListSchedulerItems(schedulerID int) ([]model.SchedulerItem, error)
	GetItemWithOwner(itemID int) (*model.SchedulerItem, int, error)

	// occurrence override functions
	MarkOccurrenceDeleted(itemID int, date string) error
	RestoreOccurrence(itemID int, date string) error
	ModifyOccurrence(itemID int, date string, fields OccurrenceFields) error
	ListOccurrenceOverrides(itemIDs []int, from, to string, includeDeleted bool) ([]model.ItemOccurrence, error)

	// interaction functions
	RecordInteraction(userID, schedulerID int, kind string) (bool, error)
	RemoveInteraction(userID, schedulerID int, kind string) (bool, error)
	AdminStats() (*model.AdminStats, error)
}

type pgStore struct {
	db *sqlx.DB
}

// compile-time check that pgStore implements Store
var _ Store = (*pgStore)(nil)

func NewStore() Store {
	return &pgStore{db: DB}
}
