package store

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/digiplay/digiplay-server/internal/models"
)

// Rand is the random source used by seeders
type Rand interface {
	Int63n(n int64) int64
	Float64() float64
}

// Seeder builds the sample values written the first time a key is read. All
// randomness and time come from the injected source and clock.
type Seeder struct {
	mu   sync.Mutex
	rand Rand
	now  func() time.Time
}

// NewSeeder creates a seeder. A nil rand uses a time-seeded source and a nil
// clock uses time.Now.
func NewSeeder(r Rand, now func() time.Time) *Seeder {
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if now == nil {
		now = time.Now
	}
	return &Seeder{rand: r, now: now}
}

// Now returns the seeder's clock reading
func (s *Seeder) Now() time.Time {
	return s.now()
}

func (s *Seeder) int63n(n int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rand.Int63n(n)
}

func (s *Seeder) float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rand.Float64()
}

const (
	hour = int64(time.Hour / time.Millisecond)
	day  = 24 * hour
)

// Wallet returns a balance in [100000, 5100000)
func (s *Seeder) Wallet() models.Wallet {
	return models.Wallet{Balance: 100000 + s.int63n(5000000)}
}

func (s *Seeder) Goals(childID string) []models.Goal {
	return []models.Goal{{
		ID:            fmt.Sprintf("goal_%s_1", childID),
		Title:         "دوچرخه جدید",
		CurrentAmount: 8000000,
		TargetAmount:  12000000,
		ChildID:       childID,
	}}
}

// Allowance pays weekly, next on Friday at the current clock time (today if
// today is Friday).
func (s *Seeder) Allowance(childID string) models.Allowance {
	return models.Allowance{
		ChildID:    childID,
		Amount:     1000000,
		Frequency:  models.FrequencyWeekly,
		IsActive:   true,
		NextPayout: NextFriday(s.now()).UnixMilli(),
	}
}

// NextFriday returns t moved forward to the next Friday, or t itself on a Friday
func NextFriday(t time.Time) time.Time {
	days := (int(time.Friday) - int(t.Weekday()) + 7) % 7
	return t.AddDate(0, 0, days)
}

func (s *Seeder) Activities() []models.Activity {
	now := s.now().UnixMilli()
	return []models.Activity{
		{ID: "1", Title: "خرید کتاب درسی", Description: "خرید کتاب ریاضی و علوم برای ترم جدید", Category: "خرید", Date: now - 1*day, Duration: 45, Status: models.StatusPending, Points: 50},
		{ID: "2", Title: "پرداخت شهریه کلاس", Description: "پرداخت شهریه کلاس زبان انگلیسی", Category: "پرداخت", Date: now - 2*day, Duration: 20, Status: models.StatusInProgress, Points: 75},
		{ID: "3", Title: "خرید لوازم تحریر", Description: "خرید دفتر، مداد و خودکار", Category: "خرید", Date: now - 3*day, Duration: 30, Status: models.StatusPending, Points: 30},
		{ID: "4", Title: "واریز وجه به کیف پول", Description: "واریز وجه برای خرید اینترنتی", Category: "واریز", Date: now - 4*day, Duration: 10, Status: models.StatusCompleted, Points: 25},
		{ID: "5", Title: "خرید اسباب بازی", Description: "خرید یک اسباب بازی از فروشگاه", Category: "خرید", Date: now - 5*day, Duration: 25, Status: models.StatusCompleted, Points: 40},
	}
}

func (s *Seeder) RecentActivities(childID string) []models.RecentActivity {
	now := s.now().UnixMilli()
	row := func(n int, title string, amount int64, typ string, ago int64, icon string) models.RecentActivity {
		return models.RecentActivity{
			ID:      fmt.Sprintf("activity_%s_%d", childID, n),
			Title:   title,
			Amount:  amount,
			Type:    typ,
			Date:    now - ago,
			Icon:    icon,
			ChildID: childID,
		}
	}
	return []models.RecentActivity{
		row(1, "فروشگاه پلی‌استیشن", 1599000, models.ActivityExpense, 2*hour, "game"),
		row(2, "مک‌دونالد", 850000, models.ActivityExpense, day+5*hour, "food"),
		row(3, "واریز حقوق هفتگی", 1000000, models.ActivityIncome, 3*day, "wallet"),
		row(4, "خرید کتاب", 450000, models.ActivityExpense, 5*day, "wallet"),
		row(5, "پاداش انجام تسک", 500000, models.ActivityIncome, 7*day, "wallet"),
	}
}

func (s *Seeder) Requests() []models.Request {
	now := s.now().UnixMilli()
	return []models.Request{
		{ID: "1", Title: "درخواست افزایش موجودی", Description: "درخواست افزایش موجودی کیف پول به مبلغ ۵۰۰,۰۰۰ تومان", Type: "مالی", Date: now - 2*day, Status: models.RequestPending},
		{ID: "2", Title: "درخواست خرید بازی", Description: "درخواست خرید بازی جدید", Type: "خرید", Date: now - 1*day, Status: models.RequestPending},
	}
}

func (s *Seeder) ParentWallet() models.ParentWallet {
	return models.ParentWallet{Money: 10000000, Digits: 1000}
}

// Presence simulates the online state of a newly added child
func (s *Seeder) Presence(child *models.Child) {
	now := s.now().UnixMilli()
	if s.float64() > 0.5 {
		child.IsOnline = true
		child.OnlineSince = &now
		child.LastOnlineTime = nil
		return
	}
	last := now - int64(s.float64()*float64(day))
	child.IsOnline = false
	child.OnlineSince = nil
	child.LastOnlineTime = &last
}

// BackfillPresence gives the child at index i a deterministic presence:
// even indexes online for (i+1)*5 minutes, odd ones offline for (i+1)*2 hours.
func (s *Seeder) BackfillPresence(child *models.Child, i int) {
	now := s.now().UnixMilli()
	if i%2 == 0 {
		since := now - int64(i+1)*5*int64(time.Minute/time.Millisecond)
		child.IsOnline = true
		child.OnlineSince = &since
		return
	}
	last := now - int64(i+1)*2*hour
	child.IsOnline = false
	child.LastOnlineTime = &last
}

// EmptySummary is the wallet summary shown before any child exists
func (s *Seeder) EmptySummary() (int64, []models.RecentActivity) {
	now := s.now().UnixMilli()
	total := 5000000 + s.int63n(10000000)
	return total, []models.RecentActivity{
		{ID: "default_activity_1", Title: "واریز اولیه", Amount: 2000000, Type: models.ActivityIncome, Date: now - 1*day, Icon: "wallet", ChildID: "default"},
		{ID: "default_activity_2", Title: "خرید آنلاین", Amount: 750000, Type: models.ActivityExpense, Date: now - 3*day, Icon: "wallet", ChildID: "default"},
		{ID: "default_activity_3", Title: "پرداخت قبوض", Amount: 1200000, Type: models.ActivityExpense, Date: now - 5*day, Icon: "wallet", ChildID: "default"},
	}
}
