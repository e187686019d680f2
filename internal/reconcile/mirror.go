// Package reconcile maintains the in-memory mirror of backing-store rows.
// Local optimistic mutations apply immediately; authoritative change
// notifications from the store are folded in afterwards, last-applied-wins.
package reconcile

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dispatchhq/dispatch/internal/types"
)

// ErrNotFound is returned when a referenced mission or task id is absent
// from the mirror.
var ErrNotFound = fmt.Errorf("not found")

// ChangeType labels a change-notification event.
type ChangeType string

const (
	ChangeInsert ChangeType = "insert"
	ChangeUpdate ChangeType = "update"
	ChangeDelete ChangeType = "delete"
)

// MissionChange is a per-row change notification for the missions table.
type MissionChange struct {
	Type ChangeType
	New  *types.Mission // nil for delete
	Old  *types.Mission // nil for insert
}

// TaskChange is a per-row change notification for the tasks table.
type TaskChange struct {
	Type ChangeType
	New  *types.Task
	Old  *types.Task
}

// Mirror owns the authoritative in-memory mission and task collections.
// The host is multi-threaded, so the mirror carries its own lock; all
// mutations are short synchronous critical sections.
type Mirror struct {
	mu       sync.RWMutex
	missions map[string]*types.Mission
	tasks    map[string]*types.Task
	shown    map[string]types.TaskStatus

	missionSubs map[int]chan MissionChange
	taskSubs    map[int]chan TaskChange
	nextSub     int
}

// NewMirror creates an empty mirror.
func NewMirror() *Mirror {
	return &Mirror{
		missions:    make(map[string]*types.Mission),
		tasks:       make(map[string]*types.Task),
		shown:       make(map[string]types.TaskStatus),
		missionSubs: make(map[int]chan MissionChange),
		taskSubs:    make(map[int]chan TaskChange),
	}
}

// GetMission returns a copy of the mission, or ErrNotFound.
func (m *Mirror) GetMission(id string) (*types.Mission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mission, ok := m.missions[id]
	if !ok {
		return nil, fmt.Errorf("mission %s: %w", id, ErrNotFound)
	}
	return copyMission(mission), nil
}

// GetTask returns a copy of the task, or ErrNotFound.
func (m *Mirror) GetTask(id string) (*types.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	task, ok := m.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return copyTask(task), nil
}

// ListMissions returns copies of every mission, ordered by creation time
// then id for a stable listing.
func (m *Mirror) ListMissions(ctx context.Context) ([]*types.Mission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*types.Mission, 0, len(m.missions))
	for _, mission := range m.missions {
		out = append(out, copyMission(mission))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// TasksForMission returns copies of the mission's tasks in creation order.
func (m *Mirror) TasksForMission(missionID string) []*types.Task {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*types.Task
	for _, task := range m.tasks {
		if task.RootID == missionID {
			out = append(out, copyTask(task))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// UpsertMission applies a local optimistic mission mutation and notifies
// subscribers.
func (m *Mirror) UpsertMission(mission *types.Mission) {
	m.mu.Lock()
	old := m.missions[mission.ID]
	m.missions[mission.ID] = copyMission(mission)
	change := MissionChange{Type: ChangeUpdate, New: copyMission(mission), Old: copyMission(old)}
	if old == nil {
		change.Type = ChangeInsert
	}
	m.mu.Unlock()
	m.publishMission(change)
}

// RemoveMission deletes a mission from the mirror.
func (m *Mirror) RemoveMission(id string) {
	m.mu.Lock()
	old, ok := m.missions[id]
	delete(m.missions, id)
	m.mu.Unlock()
	if ok {
		m.publishMission(MissionChange{Type: ChangeDelete, Old: copyMission(old)})
	}
}

// UpsertTask applies a local optimistic task mutation and notifies
// subscribers.
func (m *Mirror) UpsertTask(task *types.Task) {
	m.mu.Lock()
	old := m.tasks[task.ID]
	m.tasks[task.ID] = copyTask(task)
	change := TaskChange{Type: ChangeUpdate, New: copyTask(task), Old: copyTask(old)}
	if old == nil {
		change.Type = ChangeInsert
	}
	m.mu.Unlock()
	m.publishTask(change)
}

// RemoveTask deletes a task from the mirror.
func (m *Mirror) RemoveTask(id string) {
	m.mu.Lock()
	old, ok := m.tasks[id]
	delete(m.tasks, id)
	delete(m.shown, id)
	m.mu.Unlock()
	if ok {
		m.publishTask(TaskChange{Type: ChangeDelete, Old: copyTask(old)})
	}
}

// ApplyMissionChange folds an authoritative store notification into the
// mirror. Last applied wins against any optimistic local state.
func (m *Mirror) ApplyMissionChange(c MissionChange) {
	switch c.Type {
	case ChangeInsert, ChangeUpdate:
		if c.New != nil {
			m.UpsertMission(c.New)
		}
	case ChangeDelete:
		if c.Old != nil {
			m.RemoveMission(c.Old.ID)
		}
	}
}

// ApplyTaskChange folds an authoritative store notification into the
// mirror.
func (m *Mirror) ApplyTaskChange(c TaskChange) {
	switch c.Type {
	case ChangeInsert, ChangeUpdate:
		if c.New != nil {
			m.UpsertTask(c.New)
		}
	case ChangeDelete:
		if c.Old != nil {
			m.RemoveTask(c.Old.ID)
		}
	}
}

// SubscribeMissions registers a mission change subscriber. Events that
// would block are dropped rather than stalling the writer.
func (m *Mirror) SubscribeMissions(buffer int) (<-chan MissionChange, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	ch := make(chan MissionChange, buffer)
	m.missionSubs[id] = ch
	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if c, ok := m.missionSubs[id]; ok {
			delete(m.missionSubs, id)
			close(c)
		}
	}
}

// SubscribeTasks registers a task change subscriber.
func (m *Mirror) SubscribeTasks(buffer int) (<-chan TaskChange, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	ch := make(chan TaskChange, buffer)
	m.taskSubs[id] = ch
	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if c, ok := m.taskSubs[id]; ok {
			delete(m.taskSubs, id)
			close(c)
		}
	}
}

func (m *Mirror) publishMission(c MissionChange) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, ch := range m.missionSubs {
		select {
		case ch <- c:
		default:
		}
	}
}

func (m *Mirror) publishTask(c TaskChange) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, ch := range m.taskSubs {
		select {
		case ch <- c:
		default:
		}
	}
}

func copyMission(m *types.Mission) *types.Mission {
	if m == nil {
		return nil
	}
	out := *m
	return &out
}

func copyTask(t *types.Task) *types.Task {
	if t == nil {
		return nil
	}
	out := *t
	out.DependsOn = append([]string(nil), t.DependsOn...)
	out.Domains = append([]string(nil), t.Domains...)
	return &out
}
