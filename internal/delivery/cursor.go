package delivery

import "github.com/hybridz/tgstream/internal/telegram"

// Cursor tracks the next update id to request from getUpdates. It starts at
// zero (request from the beginning of retained history) and only moves
// forward. A Cursor is owned by exactly one Poller; it is not safe for
// concurrent use without external synchronization.
type Cursor struct {
	next int64
}

// Current returns the offset to use for the next fetch.
func (c *Cursor) Current() int64 {
	return c.next
}

// Advance moves the cursor to max(update_id)+1 over batch. An empty batch is
// a no-op, and the cursor never moves backwards.
func (c *Cursor) Advance(batch []telegram.Update) {
	if len(batch) == 0 {
		return
	}
	maxID := batch[0].UpdateID
	for _, u := range batch[1:] {
		if u.UpdateID > maxID {
			maxID = u.UpdateID
		}
	}
	if maxID+1 > c.next {
		c.next = maxID + 1
	}
}
