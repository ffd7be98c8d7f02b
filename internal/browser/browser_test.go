package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elevateandautomate/turnclickstoclients/internal/model"
)

func TestNewPacer_Tiers(t *testing.T) {
	assert.Equal(t, time.Second, NewPacer(model.SpeedFast).pageLoad)
	assert.Equal(t, 2*time.Second, NewPacer(model.SpeedNormal).pageLoad)
	assert.Equal(t, 5*time.Second, NewPacer(model.SpeedSlow).pageLoad)
	// Unrecognized tiers fall back to normal.
	assert.Equal(t, 2*time.Second, NewPacer(model.Speed("warp")).pageLoad)
}

func TestPacer_FirstActionImmediate(t *testing.T) {
	p := NewPacer(model.SpeedSlow)
	start := time.Now()
	require.NoError(t, p.Action(context.Background()))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestPacer_PageLoadHonorsContext(t *testing.T) {
	p := NewPacer(model.SpeedSlow)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := p.PageLoad(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestJSStringQuoting(t *testing.T) {
	assert.Equal(t, `'a'`, JSString("a"))
	assert.Equal(t, `'it\'s'`, JSString("it's"))
	assert.Equal(t, `'a\\b'`, JSString(`a\b`))
	assert.Equal(t, `'a\nb'`, JSString("a\nb"))
	// Every JS line terminator must be escaped, or harvested page text
	// splits the injected literal.
	assert.Equal(t, `'a\r\nb'`, JSString("a\r\nb"))
	assert.Equal(t, `'a b'`, JSString("a b"))
	assert.Equal(t, `'a b'`, JSString("a b"))
}
