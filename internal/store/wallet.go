package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/pkg/errors"

	"github.com/digiplay/digiplay-server/internal/models"
)

// summaryRows is how many feed rows WalletSummary returns
const summaryRows = 10

// Wallet returns the child's wallet, seeding a random balance on first read
func (s *Store) Wallet(ctx context.Context, ownerID, childID string) (models.Wallet, error) {
	return loadOrSeed(ctx, s, ownerID, WalletKey(childID), s.seed.Wallet)
}

func (s *Store) Goals(ctx context.Context, ownerID, childID string) ([]models.Goal, error) {
	return loadOrSeed(ctx, s, ownerID, GoalsKey(childID), func() []models.Goal {
		return s.seed.Goals(childID)
	})
}

// AddGoal appends a savings goal starting at zero
func (s *Store) AddGoal(ctx context.Context, ownerID, childID, title string, target int64) (*models.Goal, error) {
	if title == "" || target <= 0 {
		return nil, errors.Wrap(ErrValidation, "goal needs a title and a positive target")
	}

	unlock := s.lock(ownerID)
	defer unlock()

	goals, err := s.Goals(ctx, ownerID, childID)
	if err != nil {
		return nil, err
	}

	goal := models.Goal{
		ID:           fmt.Sprintf("goal_%s_%d", childID, s.nowMillis()),
		Title:        title,
		TargetAmount: target,
		ChildID:      childID,
	}
	goals = append(goals, goal)
	if err := s.save(ctx, ownerID, GoalsKey(childID), goals); err != nil {
		return nil, err
	}
	return &goal, nil
}

func (s *Store) Allowance(ctx context.Context, ownerID, childID string) (models.Allowance, error) {
	return loadOrSeed(ctx, s, ownerID, AllowanceKey(childID), func() models.Allowance {
		return s.seed.Allowance(childID)
	})
}

// ToggleAllowance flips isActive and persists it
func (s *Store) ToggleAllowance(ctx context.Context, ownerID, childID string) (models.Allowance, error) {
	unlock := s.lock(ownerID)
	defer unlock()

	allowance, err := s.Allowance(ctx, ownerID, childID)
	if err != nil {
		return allowance, err
	}
	allowance.IsActive = !allowance.IsActive
	return allowance, s.save(ctx, ownerID, AllowanceKey(childID), allowance)
}

// UpdateAllowance changes the amount and frequency
func (s *Store) UpdateAllowance(ctx context.Context, ownerID, childID string, amount int64, frequency string) (models.Allowance, error) {
	if amount <= 0 || (frequency != models.FrequencyWeekly && frequency != models.FrequencyMonthly) {
		return models.Allowance{}, errors.Wrap(ErrValidation, "allowance needs a positive amount and a weekly or monthly frequency")
	}

	unlock := s.lock(ownerID)
	defer unlock()

	allowance, err := s.Allowance(ctx, ownerID, childID)
	if err != nil {
		return allowance, err
	}
	allowance.Amount = amount
	allowance.Frequency = frequency
	return allowance, s.save(ctx, ownerID, AllowanceKey(childID), allowance)
}

// RecentActivities returns the child's wallet activity, reseeding it when the
// stored list is missing or empty.
func (s *Store) RecentActivities(ctx context.Context, ownerID, childID string) ([]models.RecentActivity, error) {
	key := RecentActivitiesKey(childID)
	rows, err := loadOrSeed(ctx, s, ownerID, key, func() []models.RecentActivity {
		return s.seed.RecentActivities(childID)
	})
	if err != nil || len(rows) > 0 {
		return rows, err
	}

	rows = s.seed.RecentActivities(childID)
	if err := s.save(ctx, ownerID, key, rows); err != nil {
		return nil, err
	}
	DocumentsSeeded.WithLabelValues(family(key)).Inc()
	return rows, nil
}

// WalletFeed merges recent activity with rewards of completed tasks, newest first
func (s *Store) WalletFeed(ctx context.Context, ownerID, childID string) ([]models.RecentActivity, error) {
	recent, err := s.RecentActivities(ctx, ownerID, childID)
	if err != nil {
		return nil, err
	}
	activities, err := loadOrEmpty[[]models.Activity](ctx, s, ownerID, ActivitiesKey(childID))
	if err != nil {
		return nil, err
	}

	feed := make([]models.RecentActivity, 0, len(recent)+len(activities))
	for _, row := range recent {
		row.ChildID = childID
		feed = append(feed, row)
	}
	feed = append(feed, rewardRows(childID, activities, s.nowMillis())...)

	sortNewestFirst(feed)
	return feed, nil
}

func rewardRows(childID string, activities []models.Activity, now int64) []models.RecentActivity {
	var rows []models.RecentActivity
	for _, a := range activities {
		if a.Status != models.StatusCompleted || a.Points == 0 {
			continue
		}
		date := a.Date
		if date == 0 {
			date = now
		}
		rows = append(rows, models.RecentActivity{
			ID:      "task_" + a.ID,
			Title:   "پاداش: " + a.Title,
			Amount:  a.Points * models.DigitToToman,
			Type:    models.ActivityIncome,
			Date:    date,
			Icon:    "wallet",
			ChildID: childID,
		})
	}
	return rows
}

func sortNewestFirst(rows []models.RecentActivity) {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date > rows[j].Date })
}

func (s *Store) ParentWallet(ctx context.Context, ownerID string) (models.ParentWallet, error) {
	return loadOrSeed(ctx, s, ownerID, KeyParentWallet, s.seed.ParentWallet)
}

// Deposit adds money to the parent wallet
func (s *Store) Deposit(ctx context.Context, ownerID string, amount int64) (models.ParentWallet, error) {
	return s.Charge(ctx, ownerID, models.TransferMoney, amount)
}

// Charge adds money or digits to the parent wallet
func (s *Store) Charge(ctx context.Context, ownerID, kind string, amount int64) (models.ParentWallet, error) {
	if amount <= 0 {
		return models.ParentWallet{}, errors.Wrap(ErrValidation, "amount must be positive")
	}

	unlock := s.lock(ownerID)
	defer unlock()

	wallet, err := s.ParentWallet(ctx, ownerID)
	if err != nil {
		return wallet, err
	}
	switch kind {
	case models.TransferMoney:
		wallet.Money += amount
	case models.TransferDigit:
		wallet.Digits += amount
	default:
		return wallet, errors.Wrapf(ErrValidation, "unknown kind %q", kind)
	}
	return wallet, s.save(ctx, ownerID, KeyParentWallet, wallet)
}

// TransferResult is the state after a transfer
type TransferResult struct {
	ParentWallet models.ParentWallet
	ChildWallet  models.Wallet
	Activity     models.RecentActivity
}

// Transfer moves money or digits from the parent wallet to a child wallet and
// records an income row in the child's recent activity. All three documents
// are written together; on ErrInsufficientBalance nothing changes.
func (s *Store) Transfer(ctx context.Context, ownerID, kind, childID string, amount int64) (*TransferResult, error) {
	if amount <= 0 {
		return nil, errors.Wrap(ErrValidation, "amount must be positive")
	}
	if kind != models.TransferMoney && kind != models.TransferDigit {
		return nil, errors.Wrapf(ErrValidation, "unknown kind %q", kind)
	}

	unlock := s.lock(ownerID)
	defer unlock()

	children, err := s.listChildren(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !taken(children, childID) {
		return nil, errors.Wrapf(ErrNotFound, "child %s", childID)
	}

	parent, err := s.ParentWallet(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	// A wallet nobody has looked at yet starts empty rather than seeded
	child, err := loadOrEmpty[models.Wallet](ctx, s, ownerID, WalletKey(childID))
	if err != nil {
		return nil, err
	}
	recent, err := loadOrEmpty[[]models.RecentActivity](ctx, s, ownerID, RecentActivitiesKey(childID))
	if err != nil {
		return nil, err
	}

	now := s.nowMillis()
	activity := models.RecentActivity{
		ID:   fmt.Sprintf("transfer_%d", now),
		Type: models.ActivityIncome,
		Date: now,
		Icon: "wallet",
	}

	if kind == models.TransferMoney {
		if parent.Money < amount {
			return nil, ErrInsufficientBalance
		}
		parent.Money -= amount
		child.Balance += amount
		activity.Title = "انتقال وجه از والد"
		activity.Amount = amount
	} else {
		if parent.Digits < amount {
			return nil, ErrInsufficientBalance
		}
		parent.Digits -= amount
		child.Digits += amount
		points := amount
		activity.Title = "انتقال دیجیت از والد"
		activity.Amount = amount * models.DigitToToman
		activity.Points = &points
	}

	recent = append([]models.RecentActivity{activity}, recent...)
	err = s.saveAll(ctx, ownerID, map[string]interface{}{
		KeyParentWallet:              parent,
		WalletKey(childID):           child,
		RecentActivitiesKey(childID): recent,
	})
	if err != nil {
		return nil, err
	}

	Transfers.WithLabelValues(kind).Inc()
	s.logger.Info("transfer completed", "owner", ownerID, "child", childID, "kind", kind, "amount", amount)

	return &TransferResult{ParentWallet: parent, ChildWallet: child, Activity: activity}, nil
}

// WalletSummary totals the children's balances and feeds. Missing wallets
// and activity lists are seeded along the way.
func (s *Store) WalletSummary(ctx context.Context, ownerID string) (*models.WalletSummary, error) {
	children, err := s.ListChildren(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	var total int64
	var feed []models.RecentActivity
	if len(children) == 0 {
		total, feed = s.seed.EmptySummary()
	}

	for _, child := range children {
		wallet, err := s.Wallet(ctx, ownerID, child.ID)
		if err != nil {
			return nil, err
		}
		total += wallet.Balance

		rows, err := s.WalletFeed(ctx, ownerID, child.ID)
		if err != nil {
			return nil, err
		}
		feed = append(feed, rows...)
	}

	sortNewestFirst(feed)

	summary := &models.WalletSummary{
		TotalBalance:      total,
		TransactionsCount: len(feed),
	}
	for _, row := range feed {
		switch row.Type {
		case models.ActivityIncome:
			summary.TotalIncome += row.Amount
		case models.ActivityExpense:
			summary.TotalExpense += row.Amount
		}
	}
	if len(feed) > summaryRows {
		feed = feed[:summaryRows]
	}
	summary.RecentActivities = feed
	return summary, nil
}
