package delivery

import (
	"testing"

	"github.com/hybridz/tgstream/internal/telegram"
)

func updateBatch(ids ...int64) []telegram.Update {
	batch := make([]telegram.Update, len(ids))
	for i, id := range ids {
		batch[i] = telegram.Update{UpdateID: id, Message: &telegram.Message{}}
	}
	return batch
}

func TestCursor_StartsAtZero(t *testing.T) {
	var c Cursor
	if got := c.Current(); got != 0 {
		t.Fatalf("got %d, want 0", got)
	}
}

func TestCursor_AdvancesToMaxPlusOne(t *testing.T) {
	var c Cursor

	c.Advance(updateBatch(5))
	if got := c.Current(); got != 6 {
		t.Fatalf("after {5}: got %d, want 6", got)
	}

	c.Advance(updateBatch(8, 9))
	if got := c.Current(); got != 10 {
		t.Fatalf("after {8,9}: got %d, want 10", got)
	}

	// Max wins even when the batch is out of order.
	c.Advance(updateBatch(15, 12))
	if got := c.Current(); got != 16 {
		t.Fatalf("after {15,12}: got %d, want 16", got)
	}
}

func TestCursor_EmptyBatchIsNoop(t *testing.T) {
	var c Cursor
	c.Advance(updateBatch(3))
	c.Advance(nil)
	if got := c.Current(); got != 4 {
		t.Fatalf("got %d, want 4", got)
	}
}

func TestCursor_NeverDecreases(t *testing.T) {
	var c Cursor
	c.Advance(updateBatch(10))
	c.Advance(updateBatch(2))
	if got := c.Current(); got != 11 {
		t.Fatalf("got %d, want 11", got)
	}
}
