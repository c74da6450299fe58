package flow

import "github.com/devcoregroup/lox/backend/internal/model/chat"

// Subscribe returns a channel that receives the latest snapshot after every
// change. Slow readers only see the most recent one. The returned func
// unsubscribes.
func (c *Controller) Subscribe() (<-chan chat.Session, func()) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	ch := make(chan chat.Session, 1)
	if c.closed {
		close(ch)
		return ch, func() {}
	}

	id := c.nextID
	c.nextID++
	c.subs[id] = ch

	return ch, func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
}

// Subscribers returns the number of attached listeners.
func (c *Controller) Subscribers() int {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	return len(c.subs)
}

// Close drops every subscriber. The controller must not be used afterwards.
func (c *Controller) Close() {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
}

func (c *Controller) publish(snap chat.Session) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	for _, ch := range c.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}
