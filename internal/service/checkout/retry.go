package checkout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"shopbridge/internal/domain"
	"shopbridge/internal/payment"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// call runs fn with a per-attempt timeout. Transient failures are retried
// with exponential backoff up to MaxRetries times. A timed-out attempt is
// not retried, and running out of the caller's deadline is a timeout too.
func (s *Service) call(ctx context.Context, op string, fn func(context.Context) (*payment.Session, error)) (*payment.Session, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.cfg.InitialBackoff
	b.MaxInterval = s.cfg.MaxBackoff
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, s.cfg.MaxRetries), ctx)

	var (
		out     *payment.Session
		attempt int
	)
	err := backoff.Retry(func() error {
		attempt++
		callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()

		res, err := fn(callCtx)
		if err == nil {
			out = res
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return backoff.Permanent(fmt.Errorf("%w: %s exceeded %s", domain.ErrProviderTimeout, op, s.cfg.Timeout))
		}
		if !isTransient(err) {
			return backoff.Permanent(err)
		}
		s.logger.Warn("transient provider failure",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		return err
	}, policy)
	if err == nil {
		return out, nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %s: caller deadline exceeded", domain.ErrProviderTimeout, op)
	}

	switch {
	case errors.Is(err, domain.ErrProviderTimeout):
		s.metrics.ProviderError("timeout")
		s.logger.Error("provider timeout", zap.String("op", op), zap.Error(err))
		return nil, err
	case errors.Is(err, context.Canceled):
		return nil, err
	default:
		s.metrics.ProviderError("error")
		s.logger.Error("provider call failed", zap.String("op", op), zap.Int("attempts", attempt), zap.Error(err))
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrProviderError, op, err)
	}
}

func isTransient(err error) bool {
	var perr *payment.Error
	if errors.As(err, &perr) {
		return perr.Temporary()
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF)
}
