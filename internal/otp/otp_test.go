package otp_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/digiplay/digiplay-server/internal/config"
	"github.com/digiplay/digiplay-server/internal/otp"
	"github.com/digiplay/digiplay-server/internal/repository"
	"github.com/digiplay/digiplay-server/internal/utils"
)

const mobile = "+989121234567"

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, mobileNumber, code string) error {
	args := m.Called(ctx, mobileNumber, code)
	return args.Error(0)
}

func newCodeStore(t *testing.T) *repository.SQLRepository {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Database.Driver = config.DriverSQLite
	cfg.Database.SQLitePath = filepath.Join(t.TempDir(), "otp.db")

	db, err := config.SetupDatabase(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return repository.NewSQLRepository(db)
}

func TestFormatMobileNumber(t *testing.T) {
	tests := map[string]string{
		"09121234567":      "+989121234567",
		"989121234567":     "+989121234567",
		"+98 912 123 4567": "+989121234567",
		"9121234567":       "+989121234567",
		"":                 "+98",
	}
	for in, want := range tests {
		assert.Equal(t, want, otp.FormatMobileNumber(in), in)
	}

	assert.True(t, otp.ValidMobileNumber("+989121234567"))
	assert.False(t, otp.ValidMobileNumber("+98"))
	assert.False(t, otp.ValidMobileNumber("+982112345678"))
}

func TestLocalVerifier(t *testing.T) {
	v := otp.NewLocalVerifier("111111", 0, utils.NopLogger())
	ctx := context.Background()

	require.NoError(t, v.Issue(ctx, mobile))
	assert.NoError(t, v.Verify(ctx, mobile, "111111"))
	assert.ErrorIs(t, v.Verify(ctx, mobile, "123456"), otp.ErrInvalidCode)
}

func TestLocalVerifierHonoursCancellation(t *testing.T) {
	v := otp.NewLocalVerifier("111111", time.Hour, utils.NopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, v.Verify(ctx, mobile, "111111"), context.Canceled)
}

func TestIssuingVerifier(t *testing.T) {
	codes := newCodeStore(t)
	sender := new(mockSender)

	var sent string
	sender.On("Send", mock.Anything, mobile, mock.MatchedBy(func(code string) bool {
		return len(code) == otp.CodeLength
	})).Run(func(args mock.Arguments) {
		sent = args.String(2)
	}).Return(nil)

	v := otp.NewIssuingVerifier(codes, sender, 2*time.Minute, 5)
	ctx := context.Background()

	require.NoError(t, v.Issue(ctx, mobile))
	sender.AssertExpectations(t)

	stored, err := codes.GetOTP(ctx, mobile)
	require.NoError(t, err)
	assert.NotEqual(t, sent, stored.CodeHash)

	wrong := "000000"
	if sent == wrong {
		wrong = "999999"
	}
	assert.ErrorIs(t, v.Verify(ctx, mobile, wrong), otp.ErrInvalidCode)
	assert.NoError(t, v.Verify(ctx, mobile, sent))

	// Consumed
	assert.ErrorIs(t, v.Verify(ctx, mobile, sent), otp.ErrInvalidCode)
}

func TestIssuingVerifierExpiry(t *testing.T) {
	codes := newCodeStore(t)
	sender := new(mockSender)
	var sent string
	sender.On("Send", mock.Anything, mobile, mock.Anything).Run(func(args mock.Arguments) {
		sent = args.String(2)
	}).Return(nil)

	now := time.Now()
	v := otp.NewIssuingVerifier(codes, sender, 2*time.Minute, 5).WithClock(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, v.Issue(ctx, mobile))
	now = now.Add(3 * time.Minute)

	err := v.Verify(ctx, mobile, sent)
	assert.ErrorIs(t, err, otp.ErrCodeExpired)
	assert.ErrorIs(t, err, otp.ErrInvalidCode)
}

func TestIssuingVerifierAttempts(t *testing.T) {
	codes := newCodeStore(t)
	sender := new(mockSender)
	var sent string
	sender.On("Send", mock.Anything, mobile, mock.Anything).Run(func(args mock.Arguments) {
		sent = args.String(2)
	}).Return(nil)

	v := otp.NewIssuingVerifier(codes, sender, 2*time.Minute, 2)
	ctx := context.Background()
	require.NoError(t, v.Issue(ctx, mobile))

	wrong := "000000"
	if sent == wrong {
		wrong = "999999"
	}
	assert.ErrorIs(t, v.Verify(ctx, mobile, wrong), otp.ErrInvalidCode)
	assert.ErrorIs(t, v.Verify(ctx, mobile, wrong), otp.ErrInvalidCode)

	// The right code no longer helps
	assert.ErrorIs(t, v.Verify(ctx, mobile, sent), otp.ErrTooManyAttempts)
}

func TestNewSelectsStrategy(t *testing.T) {
	cfg := config.DefaultConfig().OTP

	v, err := otp.New(cfg, nil, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &otp.LocalVerifier{}, v)

	cfg.Mode = otp.ModeIssued
	v, err = otp.New(cfg, newCodeStore(t), nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &otp.IssuingVerifier{}, v)

	cfg.Mode = "carrier-pigeon"
	_, err = otp.New(cfg, nil, nil, nil)
	assert.Error(t, err)
}

func TestIssuingVerifierParallelGuesses(t *testing.T) {
	codes := newCodeStore(t)
	sender := new(mockSender)
	var sent string
	sender.On("Send", mock.Anything, mobile, mock.Anything).Run(func(args mock.Arguments) {
		sent = args.String(2)
	}).Return(nil)

	v := otp.NewIssuingVerifier(codes, sender, 2*time.Minute, 3)
	ctx := context.Background()
	require.NoError(t, v.Issue(ctx, mobile))

	wrong := "000000"
	if sent == wrong {
		wrong = "999999"
	}

	const guesses = 10
	results := make(chan error, guesses)
	var wg sync.WaitGroup
	for i := 0; i < guesses; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- v.Verify(ctx, mobile, wrong)
		}()
	}
	wg.Wait()
	close(results)

	checked, refused := 0, 0
	for err := range results {
		if errors.Is(err, otp.ErrTooManyAttempts) {
			refused++
			continue
		}
		assert.ErrorIs(t, err, otp.ErrInvalidCode)
		checked++
	}
	assert.Equal(t, 3, checked)
	assert.Equal(t, guesses-3, refused)

	stored, err := codes.GetOTP(ctx, mobile)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Attempts)
}
