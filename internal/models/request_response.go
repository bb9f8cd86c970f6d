package models

// Request models
type OTPRequest struct {
	MobileNumber string `json:"mobile_number" binding:"required"`
}

type RegisterParentRequest struct {
	NationalID   string `json:"national_id" binding:"required,len=10,numeric"`
	MobileNumber string `json:"mobile_number" binding:"required"`
	OTP          string `json:"otp" binding:"required,min=6,numeric"`
	FirstName    string `json:"first_name" binding:"required"`
	LastName     string `json:"last_name" binding:"required"`
}

const (
	LoginTypeMobileOTP = "MOBILE_OTP"
	LoginTypeChild     = "CHILD"
	LoginTypeQR        = "QR"
)

type OTPCredentials struct {
	MobileNumber string `json:"mobileNumber" binding:"required"`
	OTP          string `json:"otp" binding:"required,min=6"`
}

type LoginRequest struct {
	LoginType      string          `json:"loginType" binding:"required"`
	OTPCredentials *OTPCredentials `json:"otpCredentials"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type UpdateProfileRequest struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	NationalID string `json:"nationalId" binding:"omitempty,len=10,numeric"`
}

type CreateChildRequest struct {
	FirstName  string `json:"firstName" binding:"required"`
	LastName   string `json:"lastName" binding:"required"`
	NationalID string `json:"nationalId" binding:"required,len=10,numeric"`
	Password   string `json:"password" binding:"required,min=4"`
	BirthDate  string `json:"birthDate" binding:"required"`
	Avatar     string `json:"avatar"`
}

type UpdateChildRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	BirthDate string `json:"birthDate"`
	Avatar    string `json:"avatar"`
}

type CreateTaskRequest struct {
	Title  string `json:"title" binding:"required"`
	Reward int64  `json:"reward" binding:"required,gt=0"`
}

type CreateGoalRequest struct {
	Title        string `json:"title" binding:"required"`
	TargetAmount int64  `json:"targetAmount" binding:"required,gt=0"`
}

type UpdateAllowanceRequest struct {
	Amount    int64  `json:"amount" binding:"required,gt=0"`
	Frequency string `json:"frequency" binding:"required,oneof=weekly monthly"`
}

type AmountRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

type ChargeRequest struct {
	Kind   string `json:"kind" binding:"required,oneof=money digit"`
	Amount int64  `json:"amount" binding:"required,gt=0"`
}

type TransferRequest struct {
	Kind    string `json:"kind" binding:"required,oneof=money digit"`
	ChildID string `json:"childId" binding:"required"`
	Amount  int64  `json:"amount" binding:"required,gt=0"`
}

type PublishReleaseRequest struct {
	Version string `json:"version" binding:"required"`
}

type ApplyUpdateRequest struct {
	Version string `json:"version" binding:"required"`
}

// Response models
type AuthTokenData struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int    `json:"expires_in"`
	IssuedAt         string `json:"issued_at"`
	RefreshExpiresIn int    `json:"refresh_expires_in"`
}

type AuthResponse struct {
	Data    *AuthTokenData `json:"data,omitempty"`
	User    *Parent        `json:"user,omitempty"`
	Message string         `json:"message,omitempty"`
}

type OTPResponse struct {
	Message string `json:"message,omitempty"`
	Success bool   `json:"success"`
}

// ChildView is a child as returned to clients, never carrying the password
type ChildView struct {
	ID             string `json:"id"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	NationalID     string `json:"nationalId"`
	BirthDate      string `json:"birthDate"`
	Avatar         string `json:"avatar"`
	Age            int    `json:"age"`
	IsOnline       bool   `json:"isOnline"`
	OnlineSince    *int64 `json:"onlineSince,omitempty"`
	LastOnlineTime *int64 `json:"lastOnlineTime,omitempty"`
	StatusText     string `json:"statusText"`
}

type ChildStats struct {
	TasksCount    int `json:"tasksCount"`
	RequestsCount int `json:"requestsCount"`
}

type TaskStats struct {
	Active    int `json:"active"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
}

type ChildDetailResponse struct {
	Child     ChildView        `json:"child"`
	Wallet    Wallet           `json:"wallet"`
	Goals     []Goal           `json:"goals"`
	Allowance Allowance        `json:"allowance"`
	Tasks     []TaskDefinition `json:"tasks"`
	TaskStats TaskStats        `json:"taskStats"`
}

type WalletSummary struct {
	TotalBalance      int64            `json:"totalBalance"`
	RecentActivities  []RecentActivity `json:"recentActivities"`
	TotalIncome       int64            `json:"totalIncome"`
	TotalExpense      int64            `json:"totalExpense"`
	TransactionsCount int              `json:"transactionsCount"`
}

// Message is one row of the parent's messages feed
type Message struct {
	ID          string `json:"id"`
	ChildID     string `json:"childId"`
	ChildName   string `json:"childName"`
	ChildAvatar string `json:"childAvatar"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	Message     string `json:"message"`
	Timestamp   int64  `json:"timestamp"`
	IsRead      bool   `json:"isRead"`
	Amount      int64  `json:"amount,omitempty"`
	Status      string `json:"status,omitempty"`
}

type MessagesResponse struct {
	Messages    []Message `json:"messages"`
	UnreadCount int       `json:"unreadCount"`
}

type TransferResponse struct {
	ParentWallet ParentWallet   `json:"parentWallet"`
	ChildWallet  Wallet         `json:"childWallet"`
	Activity     RecentActivity `json:"activity"`
}

type VersionResponse struct {
	Version      string `json:"version"`
	NeedRefresh  bool   `json:"needRefresh"`
	PollInterval int    `json:"pollIntervalSeconds"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"error_code"`
	Message string `json:"message"`
}
