// Copyright 2026 The CodeChain-Go Authors

package mempool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNotifierCoalescesSignals(t *testing.T) {
	n := NewNotifier()
	_, ch := n.Subscribe()

	n.notify()
	n.notify()

	select {
	case <-ch:
	default:
		t.Fatal("expected a pending signal")
	}
	select {
	case <-ch:
		t.Fatal("signal should have coalesced to one")
	default:
	}
}

func TestNotifierUnsubscribeStopsDelivery(t *testing.T) {
	n := NewNotifier()
	id, ch := n.Subscribe()
	n.Unsubscribe(id)
	n.notify()
	select {
	case <-ch:
		t.Fatal("unsubscribed listener should not receive")
	default:
	}
	require.Empty(t, n.subs)
}
