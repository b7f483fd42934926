package model

import "time"

type Scheduler struct {
	ID          int       `db:"id" json:"id"`
	UserID      int       `db:"user_id" json:"user_id"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description"`
	Category    *string   `db:"category" json:"category"`
	IsPublic    bool      `db:"is_public" json:"is_public"`
	UsageCount  int       `db:"usage_count" json:"usage_count"`
	LikeCount   int       `db:"like_count" json:"like_count"`
	ShareCount  int       `db:"share_count" json:"share_count"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`

	// populated by joins on listing queries
	AuthorName *string `db:"author_name" json:"author_name,omitempty"`
}

// interaction types recorded in user_interactions; unique per
// (user, scheduler, type)
const (
	InteractionLike  = "like"
	InteractionUse   = "use"
	InteractionShare = "share"
)

type UserInteraction struct {
	ID          int       `db:"id"`
	UserID      int       `db:"user_id"`
	SchedulerID int       `db:"scheduler_id"`
	Type        string    `db:"interaction_type"`
	CreatedAt   time.Time `db:"created_at"`
}

type CategoryCount struct {
	Category string `db:"category" json:"category"`
	Count    int    `db:"count" json:"count"`
}

type AdminStats struct {
	Users        int `db:"users" json:"users"`
	Schedulers   int `db:"schedulers" json:"schedulers"`
	Items        int `db:"items" json:"items"`
	Interactions int `db:"interactions" json:"interactions"`
}
