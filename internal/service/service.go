package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/digiplay/digiplay-server/internal/config"
	"github.com/digiplay/digiplay-server/internal/models"
	"github.com/digiplay/digiplay-server/internal/otp"
	"github.com/digiplay/digiplay-server/internal/repository"
	"github.com/digiplay/digiplay-server/internal/store"
	"github.com/digiplay/digiplay-server/internal/updates"
	"github.com/digiplay/digiplay-server/internal/utils"
)

var (
	ErrInvalidOTP           = errors.New("invalid otp")
	ErrRegistrationRequired = errors.New("registration required")
	ErrAlreadyRegistered    = errors.New("mobile number already registered")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrUnsupportedLoginType = errors.New("unsupported login type")
	ErrValidation           = errors.New("validation failed")
)

// Service interface defines the business logic methods
type Service interface {
	// Auth operations
	RequestOTP(ctx context.Context, req models.OTPRequest) (*models.OTPResponse, error)
	RegisterParent(ctx context.Context, req models.RegisterParentRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	Refresh(ctx context.Context, req models.RefreshRequest) (*models.AuthResponse, error)
	Logout(ctx context.Context, parentID string) error
	GetProfile(ctx context.Context, parentID string) (*models.Parent, error)
	UpdateProfile(ctx context.Context, parentID string, req models.UpdateProfileRequest) (*models.Parent, error)

	// Children
	ListChildren(ctx context.Context, parentID string) ([]models.ChildView, error)
	GetChildDetail(ctx context.Context, parentID, childID string) (*models.ChildDetailResponse, error)
	CreateChild(ctx context.Context, parentID string, req models.CreateChildRequest) (*models.ChildView, error)
	UpdateChild(ctx context.Context, parentID, childID string, req models.UpdateChildRequest) (*models.ChildView, error)
	DeleteChild(ctx context.Context, parentID, childID string) error
	GetChildStats(ctx context.Context, parentID, childID string) (*models.ChildStats, error)

	// Child wallet
	GetChildWallet(ctx context.Context, parentID, childID string) (*models.Wallet, error)
	GetGoals(ctx context.Context, parentID, childID string) ([]models.Goal, error)
	CreateGoal(ctx context.Context, parentID, childID string, req models.CreateGoalRequest) (*models.Goal, error)
	GetAllowance(ctx context.Context, parentID, childID string) (*models.Allowance, error)
	ToggleAllowance(ctx context.Context, parentID, childID string) (*models.Allowance, error)
	UpdateAllowance(ctx context.Context, parentID, childID string, req models.UpdateAllowanceRequest) (*models.Allowance, error)
	GetWalletFeed(ctx context.Context, parentID, childID string) ([]models.RecentActivity, error)

	// Tasks, activities and requests
	ListTasks(ctx context.Context, parentID, childID string) ([]models.TaskDefinition, error)
	CreateTask(ctx context.Context, parentID, childID string, req models.CreateTaskRequest) (*models.TaskDefinition, error)
	DeleteTask(ctx context.Context, parentID, childID, taskID string) error
	ListActivities(ctx context.Context, parentID, childID string) ([]models.Activity, error)
	ListRequests(ctx context.Context, parentID, childID string, pendingOnly bool) ([]models.Request, error)

	// Parent wallet
	GetParentWallet(ctx context.Context, parentID string) (*models.ParentWallet, error)
	Deposit(ctx context.Context, parentID string, req models.AmountRequest) (*models.ParentWallet, error)
	Charge(ctx context.Context, parentID string, req models.ChargeRequest) (*models.ParentWallet, error)
	Transfer(ctx context.Context, parentID string, req models.TransferRequest) (*models.TransferResponse, error)
	GetWalletSummary(ctx context.Context, parentID string) (*models.WalletSummary, error)
	GetMessages(ctx context.Context, parentID, query string) (*models.MessagesResponse, error)

	// Raw documents
	ListKeys(ctx context.Context, parentID string) ([]string, error)
	GetDocument(ctx context.Context, parentID, key string) (json.RawMessage, error)
	PutDocument(ctx context.Context, parentID, key string, value json.RawMessage) error
	DeleteDocument(ctx context.Context, parentID, key string) error

	// App updates
	GetVersion(ctx context.Context, parentID, clientVersion string) models.VersionResponse
	PublishRelease(ctx context.Context, req models.PublishReleaseRequest) models.VersionResponse
	OfflineReady(ctx context.Context, parentID string)
	ApplyUpdate(ctx context.Context, parentID string, req models.ApplyUpdateRequest) (models.VersionResponse, error)
}

// DefaultService implements the Service interface
type DefaultService struct {
	repo     repository.Repository
	store    *store.Store
	otp      otp.Verifier
	releases *updates.Releases
	logger   *utils.Logger

	jwtSecret       []byte
	tokenDuration   time.Duration
	refreshDuration time.Duration
	now             func() time.Time
}

var _ Service = (*DefaultService)(nil)

// NewDefaultService creates a new service with the given dependencies
func NewDefaultService(
	repo repository.Repository,
	st *store.Store,
	verifier otp.Verifier,
	releases *updates.Releases,
	auth config.AuthConfig,
	logger *utils.Logger,
) *DefaultService {
	if logger == nil {
		logger = utils.NopLogger()
	}
	return &DefaultService{
		repo:            repo,
		store:           st,
		otp:             verifier,
		releases:        releases,
		logger:          logger,
		jwtSecret:       []byte(auth.JWTSecret),
		tokenDuration:   auth.AccessTokenTTL,
		refreshDuration: auth.RefreshTokenTTL,
		now:             time.Now,
	}
}

// WithClock replaces the clock used for token expiry and child ages
func (s *DefaultService) WithClock(now func() time.Time) *DefaultService {
	s.now = now
	return s
}

// Auth operations
func (s *DefaultService) RequestOTP(ctx context.Context, req models.OTPRequest) (*models.OTPResponse, error) {
	mobile, err := normaliseMobile(req.MobileNumber)
	if err != nil {
		return nil, err
	}

	if err := s.otp.Issue(ctx, mobile); err != nil {
		return nil, fmt.Errorf("error issuing otp: %w", err)
	}

	return &models.OTPResponse{
		Message: "کد تایید ارسال شد",
		Success: true,
	}, nil
}

func (s *DefaultService) RegisterParent(ctx context.Context, req models.RegisterParentRequest) (*models.AuthResponse, error) {
	mobile, err := normaliseMobile(req.MobileNumber)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return nil, fmt.Errorf("%w: first and last name are required", ErrValidation)
	}

	if err := s.verifyOTP(ctx, mobile, req.OTP); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetParentByMobile(ctx, mobile)
	if err != nil {
		return nil, fmt.Errorf("error checking existing parent: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyRegistered
	}

	now := s.now().UTC().UnixMilli()
	parent := &models.Parent{
		ID:           uuid.New().String(),
		MobileNumber: mobile,
		NationalID:   req.NationalID,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.CreateParent(ctx, parent); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("error creating parent: %w", err)
	}

	s.logger.Info("parent registered", "parent", parent.ID)
	return s.startSession(ctx, parent)
}

func (s *DefaultService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	if req.LoginType != models.LoginTypeMobileOTP {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLoginType, req.LoginType)
	}
	if req.OTPCredentials == nil {
		return nil, fmt.Errorf("%w: otpCredentials are required", ErrValidation)
	}

	mobile, err := normaliseMobile(req.OTPCredentials.MobileNumber)
	if err != nil {
		return nil, err
	}
	if err := s.verifyOTP(ctx, mobile, req.OTPCredentials.OTP); err != nil {
		return nil, err
	}

	parent, err := s.repo.GetParentByMobile(ctx, mobile)
	if err != nil {
		return nil, fmt.Errorf("error getting parent: %w", err)
	}
	if parent == nil {
		return nil, ErrRegistrationRequired
	}

	return s.startSession(ctx, parent)
}

func (s *DefaultService) Refresh(ctx context.Context, req models.RefreshRequest) (*models.AuthResponse, error) {
	oldHash := hashRefreshToken(req.RefreshToken)
	stored, err := s.repo.GetRefreshToken(ctx, oldHash)
	if err != nil {
		return nil, fmt.Errorf("error getting refresh token: %w", err)
	}
	if stored == nil || s.now().UnixMilli() > stored.ExpiresAt {
		return nil, ErrUnauthorized
	}

	parent, err := s.repo.GetParentByID(ctx, stored.ParentID)
	if err != nil {
		return nil, fmt.Errorf("error getting parent: %w", err)
	}
	if parent == nil {
		return nil, ErrUnauthorized
	}

	data, next, err := s.newTokenPair(parent)
	if err != nil {
		return nil, err
	}

	rotated, err := s.repo.RotateRefreshToken(ctx, oldHash, next)
	if err != nil {
		return nil, fmt.Errorf("error rotating refresh token: %w", err)
	}
	if !rotated {
		// Lost a race with another refresh of the same token.
		return nil, ErrUnauthorized
	}

	return &models.AuthResponse{Data: data, User: parent}, nil
}

func (s *DefaultService) Logout(ctx context.Context, parentID string) error {
	if err := s.repo.DeleteRefreshTokens(ctx, parentID); err != nil {
		return fmt.Errorf("error revoking refresh tokens: %w", err)
	}
	return nil
}

func (s *DefaultService) GetProfile(ctx context.Context, parentID string) (*models.Parent, error) {
	parent, err := s.repo.GetParentByID(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("error getting parent: %w", err)
	}
	if parent == nil {
		return nil, ErrUnauthorized
	}
	return parent, nil
}

func (s *DefaultService) UpdateProfile(ctx context.Context, parentID string, req models.UpdateProfileRequest) (*models.Parent, error) {
	parent, err := s.GetProfile(ctx, parentID)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(req.FirstName); name != "" {
		parent.FirstName = name
	}
	if name := strings.TrimSpace(req.LastName); name != "" {
		parent.LastName = name
	}
	if req.NationalID != "" {
		parent.NationalID = req.NationalID
	}
	parent.UpdatedAt = s.now().UTC().UnixMilli()

	if err := s.repo.UpdateParent(ctx, parent); err != nil {
		return nil, fmt.Errorf("error updating parent: %w", err)
	}
	return parent, nil
}

// Helper methods
func (s *DefaultService) verifyOTP(ctx context.Context, mobile, code string) error {
	err := s.otp.Verify(ctx, mobile, code)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, otp.ErrInvalidCode):
		return fmt.Errorf("%w: %v", ErrInvalidOTP, err)
	default:
		return fmt.Errorf("error verifying otp: %w", err)
	}
}

// startSession issues a fresh access and refresh token for parent
func (s *DefaultService) startSession(ctx context.Context, parent *models.Parent) (*models.AuthResponse, error) {
	data, refresh, err := s.newTokenPair(parent)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateRefreshToken(ctx, refresh); err != nil {
		return nil, fmt.Errorf("error storing refresh token: %w", err)
	}
	return &models.AuthResponse{Data: data, User: parent}, nil
}

func normaliseMobile(input string) (string, error) {
	mobile := otp.FormatMobileNumber(input)
	if !otp.ValidMobileNumber(mobile) {
		return "", fmt.Errorf("%w: invalid mobile number %q", ErrValidation, input)
	}
	return mobile, nil
}
