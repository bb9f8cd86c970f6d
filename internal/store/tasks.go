package store

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/digiplay/digiplay-server/internal/models"
)

// ListTasks returns the task definitions a parent wrote for the child
func (s *Store) ListTasks(ctx context.Context, ownerID, childID string) ([]models.TaskDefinition, error) {
	tasks, err := loadOrEmpty[[]models.TaskDefinition](ctx, s, ownerID, TasksKey(childID))
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []models.TaskDefinition{}
	}
	return tasks, nil
}

// AddTask appends a task definition. The title must be non-blank and the
// reward, in digits, positive.
func (s *Store) AddTask(ctx context.Context, ownerID, childID, title string, reward int64) (*models.TaskDefinition, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.Wrap(ErrValidation, "task title is required")
	}
	if reward <= 0 {
		return nil, errors.Wrap(ErrValidation, "task reward must be positive")
	}

	unlock := s.lock(ownerID)
	defer unlock()

	tasks, err := s.ListTasks(ctx, ownerID, childID)
	if err != nil {
		return nil, err
	}

	id := s.nowMillis()
	for taskTaken(tasks, strconv.FormatInt(id, 10)) {
		id++
	}

	task := models.TaskDefinition{
		ID:     strconv.FormatInt(id, 10),
		Title:  title,
		Reward: reward,
	}
	tasks = append(tasks, task)
	if err := s.save(ctx, ownerID, TasksKey(childID), tasks); err != nil {
		return nil, err
	}
	return &task, nil
}

func taskTaken(tasks []models.TaskDefinition, id string) bool {
	for _, t := range tasks {
		if t.ID == id {
			return true
		}
	}
	return false
}

func (s *Store) DeleteTask(ctx context.Context, ownerID, childID, taskID string) error {
	unlock := s.lock(ownerID)
	defer unlock()

	tasks, err := s.ListTasks(ctx, ownerID, childID)
	if err != nil {
		return err
	}

	kept := tasks[:0]
	for _, t := range tasks {
		if t.ID != taskID {
			kept = append(kept, t)
		}
	}
	if len(kept) == len(tasks) {
		return errors.Wrapf(ErrNotFound, "task %s", taskID)
	}
	return s.save(ctx, ownerID, TasksKey(childID), kept)
}

// Activities returns the child's activity records, seeding sample rows on
// first read. Stored rows missing points are upgraded on read.
func (s *Store) Activities(ctx context.Context, ownerID, childID string) ([]models.Activity, error) {
	return loadOrSeed(ctx, s, ownerID, ActivitiesKey(childID), s.seed.Activities)
}

// TaskStats counts activities by status
func (s *Store) TaskStats(ctx context.Context, ownerID, childID string) (models.TaskStats, error) {
	var stats models.TaskStats
	activities, err := s.Activities(ctx, ownerID, childID)
	if err != nil {
		return stats, err
	}
	for _, a := range activities {
		switch a.Status {
		case models.StatusInProgress:
			stats.Active++
		case models.StatusCompleted:
			stats.Completed++
		case models.StatusPending:
			stats.Pending++
		}
	}
	return stats, nil
}

func (s *Store) Requests(ctx context.Context, ownerID, childID string) ([]models.Request, error) {
	return loadOrSeed(ctx, s, ownerID, RequestsKey(childID), s.seed.Requests)
}

// PendingRequests returns the requests still awaiting an answer
func (s *Store) PendingRequests(ctx context.Context, ownerID, childID string) ([]models.Request, error) {
	requests, err := s.Requests(ctx, ownerID, childID)
	if err != nil {
		return nil, err
	}
	pending := []models.Request{}
	for _, r := range requests {
		if r.Status == models.RequestPending {
			pending = append(pending, r)
		}
	}
	return pending, nil
}

// ChildStats counts open tasks (pending or in progress) and pending requests
func (s *Store) ChildStats(ctx context.Context, ownerID, childID string) (models.ChildStats, error) {
	var stats models.ChildStats
	activities, err := s.Activities(ctx, ownerID, childID)
	if err != nil {
		return stats, err
	}
	for _, a := range activities {
		if a.Status == models.StatusPending || a.Status == models.StatusInProgress {
			stats.TasksCount++
		}
	}

	pending, err := s.PendingRequests(ctx, ownerID, childID)
	if err != nil {
		return stats, err
	}
	stats.RequestsCount = len(pending)
	return stats, nil
}
