package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"time"
)

func isRetryableNetErr(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || (code >= 500 && code <= 599)
}

// parseRetryAfterSeconds interprets a Retry-After header as seconds or an HTTP date.
func parseRetryAfterSeconds(v string) (int, error) {
	if s, err := strconv.Atoi(v); err == nil {
		return s, nil
	}
	if t, err := http.ParseTime(v); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return int(d.Seconds()), nil
	}
	return 0, fmt.Errorf("invalid Retry-After: %q", v)
}

func retryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := parseRetryAfterSeconds(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return 0
}

// withJitter returns a backoff duration with +/- 20% jitter applied.
func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 500 * time.Millisecond
	}
	f := 0.8 + rand.Float64()*0.4
	out := time.Duration(float64(d) * f)
	if out <= 0 {
		return d
	}
	return out
}

// backoff tracks exponential delays between attempts.
type backoff struct {
	next time.Duration
	max  time.Duration
}

func (b *backoff) delay() time.Duration {
	d := withJitter(b.next)
	if b.max > 0 && d > b.max {
		d = b.max
	}
	b.next *= 2
	return d
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
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

// retryPolicy bounds the attempts and backoff for one logical request.
type retryPolicy struct {
	attempts int
	base     time.Duration
	max      time.Duration
}

// attemptFunc performs one try. A negative wait marks err as final, zero asks
// for the policy backoff and a positive wait is a server-requested delay.
type attemptFunc func() (wait time.Duration, err error)

// run calls try until it succeeds, fails finally, attempts run out or ctx is done.
func (p retryPolicy) run(ctx context.Context, try attemptFunc) error {
	bo := backoff{next: p.base, max: p.max}
	var lastErr error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		wait, err := try()
		if err == nil {
			return nil
		}
		lastErr = err
		if wait < 0 || attempt == p.attempts {
			break
		}
		if wait == 0 {
			wait = bo.delay()
		}
		if err := sleepCtx(ctx, wait); err != nil {
			return err
		}
	}
	return lastErr
}
