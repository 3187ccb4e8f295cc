package hrapi

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

const limiterKey = "hrapi"

func newLimiter(perSecond int) *limiter.Limiter {
	if perSecond <= 0 {
		return nil
	}
	return limiter.New(memory.NewStore(), limiter.Rate{Period: time.Second, Limit: int64(perSecond)})
}

// wait blocks until the rate limiter admits one more request.
func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	for {
		lc, err := c.limiter.Get(ctx, limiterKey)
		if err != nil {
			return errors.Wrap(err, "rate limiter")
		}
		if !lc.Reached {
			return nil
		}
		delay := time.Until(time.Unix(lc.Reset, 0))
		if delay <= 0 {
			delay = 50 * time.Millisecond
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return errors.Wrap(ctx.Err(), "waiting for rate limit")
		case <-t.C:
		}
	}
}
