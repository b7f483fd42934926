package packets

import "github.com/daygrid/daygrid/internal/db"

type CreateSchedulerRequest struct {
	Title       string         `json:"title" binding:"required,max=100"`
	Description *string        `json:"description" binding:"omitempty,max=500"`
	Category    *string        `json:"category" binding:"omitempty,max=50"`
	IsPublic    *bool          `json:"is_public"`
	Items       []db.ItemInput `json:"items"`
}

type UpdateSchedulerRequest struct {
	Title       string         `json:"title" binding:"required,max=100"`
	Description *string        `json:"description" binding:"omitempty,max=500"`
	Category    *string        `json:"category" binding:"omitempty,max=50"`
	IsPublic    *bool          `json:"is_public"`
	Items       []db.ItemInput `json:"items"`
}

type BrowseQuery struct {
	Category *string `form:"category"`
	Limit    int     `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
	Offset   int     `form:"offset,default=0" binding:"omitempty,min=0"`
}

type ListOccurrencesQuery struct {
	From string `form:"from" binding:"required"`
	To   string `form:"to" binding:"required"`
}

// UpdateOccurrenceRequest either restores a deleted occurrence or applies a
// field-subset modification; exactly one action must be present.
type UpdateOccurrenceRequest struct {
	Restore       bool                 `json:"restore"`
	Modifications *db.OccurrenceFields `json:"modifications"`
}

type ListOverridesQuery struct {
	StartDate      string `form:"start_date"`
	EndDate        string `form:"end_date"`
	IncludeDeleted bool   `form:"include_deleted"`
}
