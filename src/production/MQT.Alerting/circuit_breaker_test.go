package alerting

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreakerHalfOpenProbe(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(1, time.Minute)
	cb.now = func() time.Time { return clock }

	fail := func() error { return errors.New("down") }
	ok := func() error { return nil }

	assert.Error(t, cb.Execute(fail))
	assert.ErrorIs(t, cb.Execute(ok), ErrCircuitOpen)

	clock = clock.Add(2 * time.Minute)
	// probe fails and reopens
	assert.EqualError(t, cb.Execute(fail), "down")
	assert.ErrorIs(t, cb.Execute(ok), ErrCircuitOpen)

	clock = clock.Add(2 * time.Minute)
	assert.NoError(t, cb.Execute(ok))
	assert.Equal(t, "closed", cb.Status()["state"])
	assert.NoError(t, cb.Execute(ok))
}

func TestCircuitBreakerIgnoresRejectedDestinations(t *testing.T) {
	cb := NewCircuitBreaker(1, time.Hour)
	notFound := errors.New("chat not found")

	for i := 0; i < 3; i++ {
		err := cb.Execute(func() error { return rejected(notFound) })
		assert.Same(t, notFound, err)
	}
	assert.Equal(t, "closed", cb.Status()["state"])
	assert.NoError(t, cb.Execute(func() error { return nil }))

	assert.Error(t, cb.Execute(func() error { return errors.New("connection refused") }))
	assert.Equal(t, "open", cb.Status()["state"])
}
