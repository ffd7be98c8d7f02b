package browser

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/elevateandautomate/turnclickstoclients/internal/model"
)

// Pacer spaces browser actions with operator-tunable think time so sites see
// human-ish interaction rates.
type Pacer struct {
	actions  *rate.Limiter
	pageLoad time.Duration
}

// NewPacer builds a pacer for the given speed tier. Actions are spaced
// 0.5/1/2 seconds apart and page loads settle for 1/2/5 seconds.
func NewPacer(speed model.Speed) *Pacer {
	var action, load time.Duration
	switch speed {
	case model.SpeedFast:
		action, load = 500*time.Millisecond, time.Second
	case model.SpeedSlow:
		action, load = 2*time.Second, 5*time.Second
	default:
		action, load = time.Second, 2*time.Second
	}
	return &Pacer{
		actions:  rate.NewLimiter(rate.Every(action), 1),
		pageLoad: load,
	}
}

// Action blocks until the next action slot, or until ctx is done.
func (p *Pacer) Action(ctx context.Context) error {
	return p.actions.Wait(ctx)
}

// PageLoad waits out the post-navigation settle delay.
func (p *Pacer) PageLoad(ctx context.Context) error {
	t := time.NewTimer(p.pageLoad)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
