// Package otp issues and checks one-time passwords sent to parents' mobile
// numbers. Two strategies share the Verifier interface: a local one that
// accepts a single configured code, for development and demos, and an issuing
// one that stores a hashed random code per number.
package otp

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/digiplay/digiplay-server/internal/config"
	"github.com/digiplay/digiplay-server/internal/utils"
)

const (
	ModeLocal  = "local"
	ModeIssued = "issued"
)

var (
	// ErrInvalidCode is returned for any code that is not accepted
	ErrInvalidCode = errors.New("invalid otp")
	// ErrCodeExpired means the issued code timed out
	ErrCodeExpired = errors.Wrap(ErrInvalidCode, "otp expired")
	// ErrTooManyAttempts means the issued code was guessed at too often
	ErrTooManyAttempts = errors.Wrap(ErrInvalidCode, "too many attempts")
)

// Verifier issues codes to mobile numbers and checks them
type Verifier interface {
	Issue(ctx context.Context, mobileNumber string) error
	Verify(ctx context.Context, mobileNumber, code string) error
}

// New returns the verifier selected by cfg.Mode
func New(cfg config.OTPConfig, codes CodeStore, sender Sender, logger *utils.Logger) (Verifier, error) {
	switch cfg.Mode {
	case ModeLocal, "":
		return NewLocalVerifier(cfg.LocalCode, cfg.LocalDelay, logger), nil
	case ModeIssued:
		if sender == nil {
			sender = NewLogSender(logger)
		}
		return NewIssuingVerifier(codes, sender, cfg.TTL, cfg.MaxAttempts), nil
	default:
		return nil, errors.Errorf("unknown otp mode %q", cfg.Mode)
	}
}

var nonDigits = regexp.MustCompile(`\D`)

var iranMobile = regexp.MustCompile(`^\+989\d{9}$`)

// FormatMobileNumber normalises a mobile number to the +98 form: digits
// only, a leading 98 kept, a leading 0 replaced, anything else prefixed.
func FormatMobileNumber(input string) string {
	digits := nonDigits.ReplaceAllString(input, "")
	switch {
	case strings.HasPrefix(digits, "98"):
		return "+" + digits
	case strings.HasPrefix(digits, "0"):
		return "+98" + digits[1:]
	default:
		return "+98" + digits
	}
}

// ValidMobileNumber reports whether a normalised number is an Iranian mobile
func ValidMobileNumber(normalised string) bool {
	return iranMobile.MatchString(normalised)
}

// sleep waits for d or until ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
