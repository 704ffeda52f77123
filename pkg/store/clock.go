package store

import "time"

// idClock hands out millisecond timestamps that never repeat or go
// backwards. Callers serialize access.
type idClock struct {
	now  func() time.Time
	last int64
}

func (c *idClock) next() int64 {
	id := c.now().UnixMilli()
	if id <= c.last {
		id = c.last + 1
	}
	c.last = id
	return id
}

// observe raises the floor so ids loaded from storage are never reissued.
func (c *idClock) observe(id int64) {
	if id > c.last {
		c.last = id
	}
}
