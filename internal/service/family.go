package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/digiplay/digiplay-server/internal/jalali"
	"github.com/digiplay/digiplay-server/internal/models"
	"github.com/digiplay/digiplay-server/internal/store"
)

// Children
func (s *DefaultService) ListChildren(ctx context.Context, parentID string) ([]models.ChildView, error) {
	children, err := s.store.ListChildren(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("error listing children: %w", err)
	}

	views := make([]models.ChildView, 0, len(children))
	for _, child := range children {
		views = append(views, s.childView(child))
	}
	return views, nil
}

func (s *DefaultService) GetChildDetail(ctx context.Context, parentID, childID string) (*models.ChildDetailResponse, error) {
	child, err := s.requireChild(ctx, parentID, childID)
	if err != nil {
		return nil, err
	}

	wallet, err := s.store.Wallet(ctx, parentID, childID)
	if err != nil {
		return nil, fmt.Errorf("error getting wallet: %w", err)
	}
	goals, err := s.store.Goals(ctx, parentID, childID)
	if err != nil {
		return nil, fmt.Errorf("error getting goals: %w", err)
	}
	allowance, err := s.store.Allowance(ctx, parentID, childID)
	if err != nil {
		return nil, fmt.Errorf("error getting allowance: %w", err)
	}
	tasks, err := s.store.ListTasks(ctx, parentID, childID)
	if err != nil {
		return nil, fmt.Errorf("error getting tasks: %w", err)
	}
	stats, err := s.store.TaskStats(ctx, parentID, childID)
	if err != nil {
		return nil, fmt.Errorf("error getting task stats: %w", err)
	}

	return &models.ChildDetailResponse{
		Child:     s.childView(*child),
		Wallet:    wallet,
		Goals:     goals,
		Allowance: allowance,
		Tasks:     tasks,
		TaskStats: stats,
	}, nil
}

func (s *DefaultService) CreateChild(ctx context.Context, parentID string, req models.CreateChildRequest) (*models.ChildView, error) {
	child, err := s.store.AddChild(ctx, parentID, store.NewChild{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		NationalID: req.NationalID,
		Password:   req.Password,
		BirthDate:  req.BirthDate,
		Avatar:     req.Avatar,
	})
	if err != nil {
		return nil, fmt.Errorf("error adding child: %w", err)
	}

	view := s.childView(*child)
	return &view, nil
}

func (s *DefaultService) UpdateChild(ctx context.Context, parentID, childID string, req models.UpdateChildRequest) (*models.ChildView, error) {
	child, err := s.store.UpdateChild(ctx, parentID, childID, store.ChildUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		BirthDate: req.BirthDate,
		Avatar:    req.Avatar,
	})
	if err != nil {
		return nil, fmt.Errorf("error updating child: %w", err)
	}

	view := s.childView(*child)
	return &view, nil
}

func (s *DefaultService) DeleteChild(ctx context.Context, parentID, childID string) error {
	if err := s.store.DeleteChild(ctx, parentID, childID); err != nil {
		return fmt.Errorf("error deleting child: %w", err)
	}
	return nil
}

func (s *DefaultService) GetChildStats(ctx context.Context, parentID, childID string) (*models.ChildStats, error) {
	if _, err := s.requireChild(ctx, parentID, childID); err != nil {
		return nil, err
	}
	stats, err := s.store.ChildStats(ctx, parentID, childID)
	if err != nil {
		return nil, fmt.Errorf("error getting child stats: %w", err)
	}
	return &stats, nil
}

// Child wallet
func (s *DefaultService) GetChildWallet(ctx context.Context, parentID, childID string) (*models.Wallet, error) {
	if _, err := s.requireChild(ctx, parentID, childID); err != nil {
		return nil, err
	}
	wallet, err := s.store.Wallet(ctx, parentID, childID)
	if err != nil {
		return nil, fmt.Errorf("error getting wallet: %w", err)
	}
	return &wallet, nil
}

func (s *DefaultService) GetGoals(ctx context.Context, parentID, childID string) ([]models.Goal, error) {
	if _, err := s.requireChild(ctx, parentID, childID); err != nil {
		return nil, err
	}
	goals, err := s.store.Goals(ctx, parentID, childID)
	if err != nil {
		return nil, fmt.Errorf("error getting goals: %w", err)
	}
	return goals, nil
}

func (s *DefaultService) CreateGoal(ctx context.Context, parentID, childID string, req models.CreateGoalRequest) (*models.Goal, error) {
	if _, err := s.requireChild(ctx, parentID, childID); err != nil {
		return nil, err
	}
	goal, err := s.store.AddGoal(ctx, parentID, childID, req.Title, req.TargetAmount)
	if err != nil {
		return nil, fmt.Errorf("error adding goal: %w", err)
	}
	return goal, nil
}

func (s *DefaultService) GetAllowance(ctx context.Context, parentID, childID string) (*models.Allowance, error) {
	if _, err := s.requireChild(ctx, parentID, childID); err != nil {
		return nil, err
	}
	allowance, err := s.store.Allowance(ctx, parentID, childID)
	if err != nil {
		return nil, fmt.Errorf("error getting allowance: %w", err)
	}
	return &allowance, nil
}

func (s *DefaultService) ToggleAllowance(ctx context.Context, parentID, childID string) (*models.Allowance, error) {
	if _, err := s.requireChild(ctx, parentID, childID); err != nil {
		return nil, err
	}
	allowance, err := s.store.ToggleAllowance(ctx, parentID, childID)
	if err != nil {
		return nil, fmt.Errorf("error toggling allowance: %w", err)
	}
	return &allowance, nil
}

func (s *DefaultService) UpdateAllowance(ctx context.Context, parentID, childID string, req models.UpdateAllowanceRequest) (*models.Allowance, error) {
	if _, err := s.requireChild(ctx, parentID, childID); err != nil {
		return nil, err
	}
	allowance, err := s.store.UpdateAllowance(ctx, parentID, childID, req.Amount, req.Frequency)
	if err != nil {
		return nil, fmt.Errorf("error updating allowance: %w", err)
	}
	return &allowance, nil
}

func (s *DefaultService) GetWalletFeed(ctx context.Context, parentID, childID string) ([]models.RecentActivity, error) {
	if _, err := s.requireChild(ctx, parentID, childID); err != nil {
		return nil, err
	}
	feed, err := s.store.WalletFeed(ctx, parentID, childID)
	if err != nil {
		return nil, fmt.Errorf("error getting wallet feed: %w", err)
	}
	return feed, nil
}

// Tasks, activities and requests
func (s *DefaultService) ListTasks(ctx context.Context, parentID, childID string) ([]models.TaskDefinition, error) {
	if _, err := s.requireChild(ctx, parentID, childID); err != nil {
		return nil, err
	}
	tasks, err := s.store.ListTasks(ctx, parentID, childID)
	if err != nil {
		return nil, fmt.Errorf("error listing tasks: %w", err)
	}
	return tasks, nil
}

func (s *DefaultService) CreateTask(ctx context.Context, parentID, childID string, req models.CreateTaskRequest) (*models.TaskDefinition, error) {
	if _, err := s.requireChild(ctx, parentID, childID); err != nil {
		return nil, err
	}
	task, err := s.store.AddTask(ctx, parentID, childID, req.Title, req.Reward)
	if err != nil {
		return nil, fmt.Errorf("error adding task: %w", err)
	}
	return task, nil
}

func (s *DefaultService) DeleteTask(ctx context.Context, parentID, childID, taskID string) error {
	if _, err := s.requireChild(ctx, parentID, childID); err != nil {
		return err
	}
	if err := s.store.DeleteTask(ctx, parentID, childID, taskID); err != nil {
		return fmt.Errorf("error deleting task: %w", err)
	}
	return nil
}

func (s *DefaultService) ListActivities(ctx context.Context, parentID, childID string) ([]models.Activity, error) {
	if _, err := s.requireChild(ctx, parentID, childID); err != nil {
		return nil, err
	}
	activities, err := s.store.Activities(ctx, parentID, childID)
	if err != nil {
		return nil, fmt.Errorf("error listing activities: %w", err)
	}
	return activities, nil
}

func (s *DefaultService) ListRequests(ctx context.Context, parentID, childID string, pendingOnly bool) ([]models.Request, error) {
	if _, err := s.requireChild(ctx, parentID, childID); err != nil {
		return nil, err
	}

	var (
		requests []models.Request
		err      error
	)
	if pendingOnly {
		requests, err = s.store.PendingRequests(ctx, parentID, childID)
	} else {
		requests, err = s.store.Requests(ctx, parentID, childID)
	}
	if err != nil {
		return nil, fmt.Errorf("error listing requests: %w", err)
	}
	return requests, nil
}

// Parent wallet
func (s *DefaultService) GetParentWallet(ctx context.Context, parentID string) (*models.ParentWallet, error) {
	wallet, err := s.store.ParentWallet(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("error getting parent wallet: %w", err)
	}
	return &wallet, nil
}

func (s *DefaultService) Deposit(ctx context.Context, parentID string, req models.AmountRequest) (*models.ParentWallet, error) {
	wallet, err := s.store.Deposit(ctx, parentID, req.Amount)
	if err != nil {
		return nil, fmt.Errorf("error depositing: %w", err)
	}
	return &wallet, nil
}

func (s *DefaultService) Charge(ctx context.Context, parentID string, req models.ChargeRequest) (*models.ParentWallet, error) {
	wallet, err := s.store.Charge(ctx, parentID, req.Kind, req.Amount)
	if err != nil {
		return nil, fmt.Errorf("error charging wallet: %w", err)
	}
	return &wallet, nil
}

func (s *DefaultService) Transfer(ctx context.Context, parentID string, req models.TransferRequest) (*models.TransferResponse, error) {
	result, err := s.store.Transfer(ctx, parentID, req.Kind, req.ChildID, req.Amount)
	if err != nil {
		return nil, fmt.Errorf("error transferring: %w", err)
	}
	return &models.TransferResponse{
		ParentWallet: result.ParentWallet,
		ChildWallet:  result.ChildWallet,
		Activity:     result.Activity,
	}, nil
}

func (s *DefaultService) GetWalletSummary(ctx context.Context, parentID string) (*models.WalletSummary, error) {
	summary, err := s.store.WalletSummary(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("error getting wallet summary: %w", err)
	}
	return summary, nil
}

func (s *DefaultService) GetMessages(ctx context.Context, parentID, query string) (*models.MessagesResponse, error) {
	messages, err := s.store.Messages(ctx, parentID, query)
	if err != nil {
		return nil, fmt.Errorf("error getting messages: %w", err)
	}
	return messages, nil
}

// Raw documents
func (s *DefaultService) ListKeys(ctx context.Context, parentID string) ([]string, error) {
	keys, err := s.store.Keys(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("error listing keys: %w", err)
	}
	return keys, nil
}

func (s *DefaultService) GetDocument(ctx context.Context, parentID, key string) (json.RawMessage, error) {
	raw, err := s.store.GetRaw(ctx, parentID, key)
	if err != nil {
		return nil, fmt.Errorf("error getting document: %w", err)
	}
	return raw, nil
}

func (s *DefaultService) PutDocument(ctx context.Context, parentID, key string, value json.RawMessage) error {
	if err := s.store.PutRaw(ctx, parentID, key, value); err != nil {
		return fmt.Errorf("error storing document: %w", err)
	}
	return nil
}

func (s *DefaultService) DeleteDocument(ctx context.Context, parentID, key string) error {
	if err := s.store.DeleteRaw(ctx, parentID, key); err != nil {
		return fmt.Errorf("error deleting document: %w", err)
	}
	return nil
}

// App updates
func (s *DefaultService) GetVersion(_ context.Context, parentID, clientVersion string) models.VersionResponse {
	return s.releases.Version(parentID, clientVersion)
}

func (s *DefaultService) PublishRelease(_ context.Context, req models.PublishReleaseRequest) models.VersionResponse {
	s.releases.Publish(req.Version)
	s.logger.Info("release published", "version", req.Version)
	return s.releases.Version("", "")
}

func (s *DefaultService) OfflineReady(_ context.Context, parentID string) {
	s.releases.OfflineReady(parentID)
}

func (s *DefaultService) ApplyUpdate(_ context.Context, parentID string, req models.ApplyUpdateRequest) (models.VersionResponse, error) {
	if err := s.releases.Apply(parentID, req.Version); err != nil {
		return models.VersionResponse{}, fmt.Errorf("error applying update: %w", err)
	}
	return s.releases.Version(parentID, ""), nil
}

// requireChild returns the child or a wrapped store.ErrNotFound. Routes under
// a child id use it so unknown ids are not seeded.
func (s *DefaultService) requireChild(ctx context.Context, parentID, childID string) (*models.Child, error) {
	child, err := s.store.GetChild(ctx, parentID, childID)
	if err != nil {
		return nil, fmt.Errorf("error getting child: %w", err)
	}
	return child, nil
}

func (s *DefaultService) childView(child models.Child) models.ChildView {
	now := s.now()
	return models.ChildView{
		ID:             child.ID,
		FirstName:      child.FirstName,
		LastName:       child.LastName,
		NationalID:     child.NationalID,
		BirthDate:      child.BirthDate,
		Avatar:         child.Avatar,
		Age:            jalali.ExactAge(child.BirthDate, now),
		IsOnline:       child.IsOnline,
		OnlineSince:    child.OnlineSince,
		LastOnlineTime: child.LastOnlineTime,
		StatusText:     store.PresenceText(child, now),
	}
}
