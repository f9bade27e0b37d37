package engine

import "time"

// fakeClock keeps at most one armed timer and fires it on demand.
type fakeClock struct {
	fn      func()
	armed   int
	cancels int
}

func (c *fakeClock) Every(_ time.Duration, fn func()) func() {
	c.armed++
	c.fn = fn
	done := false
	return func() {
		if done {
			return
		}
		done = true
		c.cancels++
		c.fn = nil
	}
}

func (c *fakeClock) tick(n int) {
	for range n {
		if c.fn == nil {
			return
		}
		c.fn()
	}
}
