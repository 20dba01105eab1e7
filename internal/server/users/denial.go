package users

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

type denialReason string

const (
	reasonAudience      denialReason = "unknown_audience"
	reasonUnknownUser   denialReason = "unknown_user"
	reasonWrongPassword denialReason = "wrong_password"
	reasonToken         denialReason = "invalid_token"
	reasonStore         denialReason = "store_error"
	reasonIssue         denialReason = "issue_error"
	reasonCanceled      denialReason = "canceled"
)

// denial keeps the real cause of a refused login or exchange for the logs.
// Callers only ever see common.ErrDenied.
type denial struct {
	reason denialReason
	cause  error
}

func deniedBy(reason denialReason, cause error) *denial {
	return &denial{reason: reason, cause: cause}
}

func (d *denial) Error() string {
	if d.cause == nil {
		return string(d.reason)
	}
	return string(d.reason) + ": " + d.cause.Error()
}

func (d *denial) Unwrap() error { return d.cause }

func (s *Service) deny(ctx context.Context, op string, err error) error {
	var d *denial
	if errors.As(err, &d) {
		s.logger.Warn(ctx, "request denied", "op", op, "reason", string(d.reason), "error", err)
	} else {
		s.logger.Warn(ctx, "request denied", "op", op, "error", err)
	}
	return common.ErrDenied
}
