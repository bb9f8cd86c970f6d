package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/digiplay/digiplay-server/internal/models"
	"github.com/digiplay/digiplay-server/internal/utils"
)

// CodeLength is the number of digits in an issued code
const CodeLength = 6

// CodeStore persists issued codes, one per mobile number
type CodeStore interface {
	UpsertOTP(ctx context.Context, code *models.OTPCode) error
	GetOTP(ctx context.Context, mobileNumber string) (*models.OTPCode, error)
	ReserveOTPAttempt(ctx context.Context, mobileNumber string, maxAttempts int) (bool, error)
	DeleteOTP(ctx context.Context, mobileNumber string) error
}

// Sender delivers a code to a mobile number
type Sender interface {
	Send(ctx context.Context, mobileNumber, code string) error
}

// LogSender writes codes to the log instead of sending an SMS
type LogSender struct {
	logger *utils.Logger
}

func NewLogSender(logger *utils.Logger) *LogSender {
	if logger == nil {
		logger = utils.NopLogger()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, mobileNumber, code string) error {
	s.logger.Info("otp issued", "mobile", mobileNumber, "code", code)
	return nil
}

// IssuingVerifier generates a random code per request and keeps only its
// bcrypt hash. A code is consumed by the first successful Verify.
type IssuingVerifier struct {
	codes       CodeStore
	sender      Sender
	ttl         time.Duration
	maxAttempts int
	now         func() time.Time
}

func NewIssuingVerifier(codes CodeStore, sender Sender, ttl time.Duration, maxAttempts int) *IssuingVerifier {
	return &IssuingVerifier{
		codes:       codes,
		sender:      sender,
		ttl:         ttl,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

// WithClock replaces the verifier's clock
func (v *IssuingVerifier) WithClock(now func() time.Time) *IssuingVerifier {
	v.now = now
	return v
}

func (v *IssuingVerifier) Issue(ctx context.Context, mobileNumber string) error {
	code, err := generateCode()
	if err != nil {
		return errors.Wrap(err, "generate otp")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash otp")
	}

	now := v.now()
	err = v.codes.UpsertOTP(ctx, &models.OTPCode{
		MobileNumber: mobileNumber,
		CodeHash:     string(hash),
		ExpiresAt:    now.Add(v.ttl).UnixMilli(),
		CreatedAt:    now.UnixMilli(),
	})
	if err != nil {
		return err
	}

	return errors.Wrap(v.sender.Send(ctx, mobileNumber, code), "send otp")
}

func (v *IssuingVerifier) Verify(ctx context.Context, mobileNumber, code string) error {
	stored, err := v.codes.GetOTP(ctx, mobileNumber)
	if err != nil {
		return err
	}
	if stored == nil {
		return ErrInvalidCode
	}
	if v.now().UnixMilli() > stored.ExpiresAt {
		return ErrCodeExpired
	}

	// Every check, right or wrong, spends an attempt before the hash compare
	reserved, err := v.codes.ReserveOTPAttempt(ctx, mobileNumber, v.maxAttempts)
	if err != nil {
		return err
	}
	if !reserved {
		return ErrTooManyAttempts
	}

	if bcrypt.CompareHashAndPassword([]byte(stored.CodeHash), []byte(code)) != nil {
		return ErrInvalidCode
	}

	return v.codes.DeleteOTP(ctx, mobileNumber)
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", CodeLength, n.Int64()), nil
}
