package models

// Documents stored under the keys of a parent's keyspace. Field names follow
// the JSON the web client has always persisted, dates are epoch milliseconds.

const (
	StatusCompleted  = "completed"
	StatusPending    = "pending"
	StatusInProgress = "in-progress"

	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"

	ActivityIncome  = "income"
	ActivityExpense = "expense"

	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"

	TransferMoney = "money"
	TransferDigit = "digit"

	MessageRequest     = "request"
	MessageTransaction = "transaction"
	MessageThanks      = "thanks"
	MessageTask        = "task"
	MessageLogin       = "login"
)

// DigitToToman converts reward digits into wallet money
const DigitToToman = 10000

// Child is one entry of the childrenList document
type Child struct {
	ID             string `json:"id"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	NationalID     string `json:"nationalId"`
	Password       string `json:"password"` // bcrypt hash
	BirthDate      string `json:"birthDate"`
	Avatar         string `json:"avatar"`
	IsOnline       bool   `json:"isOnline"`
	OnlineSince    *int64 `json:"onlineSince,omitempty"`
	LastOnlineTime *int64 `json:"lastOnlineTime,omitempty"`
}

// Wallet is the childWallet_{id} document
type Wallet struct {
	Balance int64 `json:"balance"`
	Digits  int64 `json:"digits"`
}

// Goal is one entry of the childGoals_{id} document
type Goal struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	CurrentAmount int64  `json:"currentAmount"`
	TargetAmount  int64  `json:"targetAmount"`
	ChildID       string `json:"childId"`
}

// Allowance is the childAllowance_{id} document. Nothing disburses it.
type Allowance struct {
	ChildID    string `json:"childId"`
	Amount     int64  `json:"amount"`
	Frequency  string `json:"frequency"`
	IsActive   bool   `json:"isActive"`
	NextPayout int64  `json:"nextPayout"`
}

// TaskDefinition is one entry of the tasks_{id} document
type TaskDefinition struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Reward int64  `json:"reward"`
}

// Activity is one entry of the childActivities_{id} document
type Activity struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Date        int64  `json:"date"`
	Duration    int    `json:"duration"`
	Status      string `json:"status"`
	Points      int64  `json:"points"`
}

// RecentActivity is one entry of the childRecentActivities_{id} document
type RecentActivity struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Amount  int64  `json:"amount"`
	Type    string `json:"type"`
	Date    int64  `json:"date"`
	Icon    string `json:"icon"`
	ChildID string `json:"childId,omitempty"`
	Points  *int64 `json:"points,omitempty"`
}

// Request is one entry of the childRequests_{id} document
type Request struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Date        int64  `json:"date"`
	Status      string `json:"status"`
	Amount      int64  `json:"amount,omitempty"`
}

// ParentWallet is the parentWallet document
type ParentWallet struct {
	Money  int64 `json:"money"`
	Digits int64 `json:"digits"`
}
