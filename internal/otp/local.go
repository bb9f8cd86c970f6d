package otp

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/digiplay/digiplay-server/internal/utils"
)

// LocalVerifier accepts one fixed code for every number after a short
// simulated network delay. Nothing is stored or sent.
type LocalVerifier struct {
	code   string
	delay  time.Duration
	logger *utils.Logger
}

func NewLocalVerifier(code string, delay time.Duration, logger *utils.Logger) *LocalVerifier {
	if logger == nil {
		logger = utils.NopLogger()
	}
	return &LocalVerifier{code: code, delay: delay, logger: logger}
}

func (v *LocalVerifier) Issue(ctx context.Context, mobileNumber string) error {
	if err := sleep(ctx, v.delay); err != nil {
		return err
	}
	v.logger.Debug("local otp requested", "mobile", mobileNumber)
	return nil
}

func (v *LocalVerifier) Verify(ctx context.Context, mobileNumber, code string) error {
	if err := sleep(ctx, v.delay); err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(code), []byte(v.code)) != 1 {
		return ErrInvalidCode
	}
	return nil
}
