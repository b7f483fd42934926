// Package dbtest provides an in-memory Store for handler tests.
package dbtest

import (
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/daygrid/daygrid/internal/db"
	"github.com/daygrid/daygrid/internal/model"
	"github.com/daygrid/daygrid/internal/recurrence"
)

type occurrenceKey struct {
	itemID int
	date   string
}

type interactionKey struct {
	userID      int
	schedulerID int
	kind        string
}

// MemStore implements db.Store on maps. It mirrors the SQL layer's
// behavior closely enough for endpoint tests: items are normalized on
// insert, occurrence writes upsert per (item, date), interactions are
// unique per (user, scheduler, type).
type MemStore struct {
	mu sync.Mutex

	nextUserID      int
	nextSchedulerID int
	nextItemID      int

	users        map[int]*model.User
	schedulers   map[int]*model.Scheduler
	items        map[int][]model.SchedulerItem // keyed by scheduler id
	occurrences  map[occurrenceKey]*model.ItemOccurrence
	interactions map[interactionKey]time.Time
}

var _ db.Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		nextUserID:      1,
		nextSchedulerID: 1,
		nextItemID:      1,
		users:           map[int]*model.User{},
		schedulers:      map[int]*model.Scheduler{},
		items:           map[int][]model.SchedulerItem{},
		occurrences:     map[occurrenceKey]*model.ItemOccurrence{},
		interactions:    map[interactionKey]time.Time{},
	}
}

// SeedUser inserts a user with an explicit role, bypassing signup.
func (m *MemStore) SeedUser(username, email, hashedPassword, role string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextUserID
	m.nextUserID++
	m.users[id] = &model.User{
		ID:             id,
		Username:       username,
		Email:          email,
		HashedPassword: hashedPassword,
		Role:           role,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	return id
}

func (m *MemStore) CreateUser(username, email, hashedPassword string) (int, error) {
	return m.SeedUser(username, email, hashedPassword, model.RoleUser), nil
}

func (m *MemStore) GetUserByEmail(email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *MemStore) GetUserByID(id int) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *u
	return &copied, nil
}

func (m *MemStore) UpdateUserProfile(id int, username, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.Username = username
	u.Email = email
	u.UpdatedAt = time.Now()
	return nil
}

func (m *MemStore) ListUsers() ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemStore) SetUserRole(id int, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.Role = role
	return nil
}

func (m *MemStore) DeleteUser(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	return nil
}

func (m *MemStore) CreateScheduler(userID int, title string, description, category *string, isPublic bool) (model.Scheduler, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSchedulerID
	m.nextSchedulerID++
	sc := &model.Scheduler{
		ID:          id,
		UserID:      userID,
		Title:       title,
		Description: description,
		Category:    category,
		IsPublic:    isPublic,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if u, ok := m.users[userID]; ok {
		name := u.Username
		sc.AuthorName = &name
	}
	m.schedulers[id] = sc
	return *sc, nil
}

func (m *MemStore) GetScheduler(id int) (*model.Scheduler, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sc, ok := m.schedulers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *sc
	return &copied, nil
}

func (m *MemStore) UpdateScheduler(id int, title string, description, category *string, isPublic bool) (model.Scheduler, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sc, ok := m.schedulers[id]
	if !ok {
		return model.Scheduler{}, sql.ErrNoRows
	}
	sc.Title = title
	sc.Description = description
	sc.Category = category
	sc.IsPublic = isPublic
	sc.UpdatedAt = time.Now()
	return *sc, nil
}

func (m *MemStore) DeleteScheduler(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.schedulers, id)
	delete(m.items, id)
	return nil
}

func (m *MemStore) ListSchedulersByUser(userID int) ([]model.Scheduler, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Scheduler
	for _, sc := range m.schedulers {
		if sc.UserID == userID {
			out = append(out, *sc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemStore) BrowseSchedulers(category *string, limit, offset int) ([]model.Scheduler, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Scheduler
	for _, sc := range m.schedulers {
		if !sc.IsPublic {
			continue
		}
		if category != nil && (sc.Category == nil || *sc.Category != *category) {
			continue
		}
		out = append(out, *sc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return window(out, limit, offset), nil
}

func (m *MemStore) PopularSchedulers(limit int) ([]model.Scheduler, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Scheduler
	for _, sc := range m.schedulers {
		if sc.IsPublic {
			out = append(out, *sc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		sa := a.UsageCount + a.LikeCount + a.ShareCount
		sb := b.UsageCount + b.LikeCount + b.ShareCount
		if sa != sb {
			return sa > sb
		}
		return a.ID < b.ID
	})
	return window(out, limit, 0), nil
}

func (m *MemStore) TrendingSchedulers(since time.Time, limit int) ([]model.Scheduler, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[int]int{}
	for key, at := range m.interactions {
		if !at.Before(since) {
			counts[key.schedulerID]++
		}
	}
	var out []model.Scheduler
	for id, sc := range m.schedulers {
		if sc.IsPublic && counts[id] > 0 {
			out = append(out, *sc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if counts[out[i].ID] != counts[out[j].ID] {
			return counts[out[i].ID] > counts[out[j].ID]
		}
		return out[i].ID < out[j].ID
	})
	return window(out, limit, 0), nil
}

func (m *MemStore) CategoryCounts() ([]model.CategoryCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int{}
	for _, sc := range m.schedulers {
		if sc.IsPublic && sc.Category != nil {
			counts[*sc.Category]++
		}
	}
	out := make([]model.CategoryCount, 0, len(counts))
	for category, n := range counts {
		out = append(out, model.CategoryCount{Category: category, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

func (m *MemStore) ReplaceSchedulerItems(schedulerID int, items []db.ItemInput, today time.Time) ([]model.SchedulerItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedulers[schedulerID]; !ok {
		return nil, sql.ErrNoRows
	}

	out := make([]model.SchedulerItem, 0, len(items))
	for i, in := range items {
		rule, err := recurrence.NormalizeRule(recurrence.RuleParams{
			Type:          in.Recurrence,
			Interval:      in.Interval,
			StartDate:     in.StartDate,
			TargetDate:    in.TargetDate,
			ItemStartDate: in.ItemStart,
			ItemEndDate:   in.ItemEnd,
			DayOfWeek:     in.DayOfWeek,
		})
		if err != nil {
			return nil, fmt.Errorf("item %d (%q): %w", i+1, in.Title, err)
		}

		anchor := recurrence.FormatDate(rule.Anchor)
		dow := rule.DayOfWeek
		var endDate *string
		if rule.End != nil {
			d := recurrence.FormatDate(*rule.End)
			endDate = &d
		}
		var nextOccur *string
		if next, ok := rule.NextOccurrence(today); ok {
			d := recurrence.FormatDate(next)
			nextOccur = &d
		}
		orderIndex := in.OrderIndex
		if orderIndex == 0 {
			orderIndex = i
		}
		priority := in.Priority
		if priority == 0 {
			priority = 1
		}
		color := in.Color
		if color == "" {
			color = "blue"
		}

		id := m.nextItemID
		m.nextItemID++
		out = append(out, model.SchedulerItem{
			ID:            id,
			SchedulerID:   schedulerID,
			Title:         in.Title,
			Description:   in.Description,
			StartTime:     in.StartTime,
			EndTime:       in.EndTime,
			DayOfWeek:     &dow,
			StartDate:     &anchor,
			ItemStartDate: &anchor,
			ItemEndDate:   endDate,
			Recurrence:    rule.Kind.String(),
			Interval:      rule.Interval,
			NextOccur:     nextOccur,
			Color:         color,
			Priority:      priority,
			OrderIndex:    orderIndex,
			CreatedAt:     time.Now(),
		})
	}
	m.items[schedulerID] = out
	m.schedulers[schedulerID].UpdatedAt = time.Now()

	copied := make([]model.SchedulerItem, len(out))
	copy(copied, out)
	return copied, nil
}

func (m *MemStore) ListSchedulerItems(schedulerID int) ([]model.SchedulerItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.items[schedulerID]
	out := make([]model.SchedulerItem, len(rows))
	copy(out, rows)
	return out, nil
}

func (m *MemStore) GetItemWithOwner(itemID int) (*model.SchedulerItem, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for schedulerID, rows := range m.items {
		for i := range rows {
			if rows[i].ID == itemID {
				item := rows[i]
				return &item, m.schedulers[schedulerID].UserID, nil
			}
		}
	}
	return nil, 0, sql.ErrNoRows
}

func (m *MemStore) MarkOccurrenceDeleted(itemID int, date string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := m.occurrence(itemID, date)
	row.IsDeleted = true
	row.UpdatedAt = time.Now()
	return nil
}

func (m *MemStore) RestoreOccurrence(itemID int, date string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := occurrenceKey{itemID: itemID, date: date}
	if row, ok := m.occurrences[key]; ok {
		row.IsDeleted = false
		row.UpdatedAt = time.Now()
	}
	return nil
}

func (m *MemStore) ModifyOccurrence(itemID int, date string, fields db.OccurrenceFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := m.occurrence(itemID, date)
	row.IsModified = true
	if fields.Title != nil {
		row.ModTitle = fields.Title
	}
	if fields.Description != nil {
		row.ModDescription = fields.Description
	}
	if fields.StartTime != nil {
		row.ModStartTime = fields.StartTime
	}
	if fields.EndTime != nil {
		row.ModEndTime = fields.EndTime
	}
	if fields.Color != nil {
		row.ModColor = fields.Color
	}
	if fields.Notes != nil {
		row.Notes = fields.Notes
	}
	row.UpdatedAt = time.Now()
	return nil
}

func (m *MemStore) ListOccurrenceOverrides(itemIDs []int, from, to string, includeDeleted bool) ([]model.ItemOccurrence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wanted := map[int]bool{}
	for _, id := range itemIDs {
		wanted[id] = true
	}
	var out []model.ItemOccurrence
	for key, row := range m.occurrences {
		if !wanted[key.itemID] || key.date < from || key.date > to {
			continue
		}
		if row.IsDeleted && !includeDeleted {
			continue
		}
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurrenceDate < out[j].OccurrenceDate })
	return out, nil
}

func (m *MemStore) RecordInteraction(userID, schedulerID int, kind string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := interactionKey{userID: userID, schedulerID: schedulerID, kind: kind}
	if _, exists := m.interactions[key]; exists {
		return false, nil
	}
	m.interactions[key] = time.Now()
	m.bumpCounter(schedulerID, kind, 1)
	return true, nil
}

func (m *MemStore) RemoveInteraction(userID, schedulerID int, kind string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := interactionKey{userID: userID, schedulerID: schedulerID, kind: kind}
	if _, exists := m.interactions[key]; !exists {
		return false, nil
	}
	delete(m.interactions, key)
	m.bumpCounter(schedulerID, kind, -1)
	return true, nil
}

func (m *MemStore) AdminStats() (*model.AdminStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := 0
	for _, rows := range m.items {
		items += len(rows)
	}
	return &model.AdminStats{
		Users:        len(m.users),
		Schedulers:   len(m.schedulers),
		Items:        items,
		Interactions: len(m.interactions),
	}, nil
}

// callers hold m.mu
func (m *MemStore) occurrence(itemID int, date string) *model.ItemOccurrence {
	key := occurrenceKey{itemID: itemID, date: date}
	if row, ok := m.occurrences[key]; ok {
		return row
	}
	row := &model.ItemOccurrence{
		ID:              len(m.occurrences) + 1,
		SchedulerItemID: itemID,
		OccurrenceDate:  date,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	m.occurrences[key] = row
	return row
}

// callers hold m.mu
func (m *MemStore) bumpCounter(schedulerID int, kind string, delta int) {
	sc, ok := m.schedulers[schedulerID]
	if !ok {
		return
	}
	switch kind {
	case model.InteractionLike:
		sc.LikeCount = max(sc.LikeCount+delta, 0)
	case model.InteractionUse:
		sc.UsageCount = max(sc.UsageCount+delta, 0)
	case model.InteractionShare:
		sc.ShareCount = max(sc.ShareCount+delta, 0)
	}
}

func window(list []model.Scheduler, limit, offset int) []model.Scheduler {
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
