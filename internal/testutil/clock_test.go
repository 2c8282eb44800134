package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fluxsocial/socialdna/internal/model"
)

func TestDeterministicClock(t *testing.T) {
	c := NewDeterministicClockAt(100, 10)
	assert.Equal(t, model.Timestamp(100), c.Now())
	assert.Equal(t, model.Timestamp(110), c.Now())

	c.Advance(1000)
	assert.Equal(t, model.Timestamp(1120), c.Peek())
	assert.Equal(t, model.Timestamp(1120), c.Now())

	c.Reset()
	assert.Equal(t, model.Timestamp(100), c.Now())
}

func TestDeterministicClock_Default(t *testing.T) {
	c := NewDeterministicClock()
	first := c.Now()
	assert.Equal(t, DefaultStart, first)
	assert.Equal(t, first+1, c.Now())
}
