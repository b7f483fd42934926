package packets

import (
	"time"

	"github.com/daygrid/daygrid/internal/model"
	"github.com/daygrid/daygrid/internal/recurrence"
)

type SchedulerResponse struct {
	ID          int     `json:"id"`
	UserID      int     `json:"user_id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	IsPublic    bool    `json:"is_public"`
	UsageCount  int     `json:"usage_count"`
	LikeCount   int     `json:"like_count"`
	ShareCount  int     `json:"share_count"`
	AuthorName  *string `json:"author_name,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

type SchedulerDetailResponse struct {
	SchedulerResponse
	Items []model.SchedulerItem `json:"items"`
}

type OccurrencesResponse struct {
	From        string                  `json:"from"`
	To          string                  `json:"to"`
	Occurrences []recurrence.Occurrence `json:"occurrences"`
}

func NewSchedulerResponse(s *model.Scheduler) SchedulerResponse {
	return SchedulerResponse{
		ID:          s.ID,
		UserID:      s.UserID,
		Title:       s.Title,
		Description: s.Description,
		Category:    s.Category,
		IsPublic:    s.IsPublic,
		UsageCount:  s.UsageCount,
		LikeCount:   s.LikeCount,
		ShareCount:  s.ShareCount,
		AuthorName:  s.AuthorName,
		CreatedAt:   s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   s.UpdatedAt.Format(time.RFC3339),
	}
}

func NewSchedulerList(list []model.Scheduler) []SchedulerResponse {
	out := make([]SchedulerResponse, 0, len(list))
	for i := range list {
		out = append(out, NewSchedulerResponse(&list[i]))
	}
	return out
}
