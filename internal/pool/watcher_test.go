package pool

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/adityaslyf/redcircle-trading/internal/domain"
	"github.com/adityaslyf/redcircle-trading/internal/solana"
	"github.com/adityaslyf/redcircle-trading/internal/solana/stub"
)

func notificationFixture(t *testing.T, state *domain.PoolState, slot int64) solana.AccountNotification {
	t.Helper()
	raw, err := EncodePoolAccount(state)
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return solana.AccountNotification{
		Pubkey: testPoolAddr,
		Slot:   slot,
		Data:   base64.StdEncoding.EncodeToString(raw),
	}
}

func waitForSnapshot(t *testing.T, w *ReserveWatcher, pool string, check func(*domain.PoolState) bool) *domain.PoolState {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if state, ok := w.Snapshot(pool); ok && check(state) {
			return state
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("timed out waiting for snapshot")
	return nil
}

func TestReserveWatcherSnapshot(t *testing.T) {
	ws := stub.NewWSClient()
	w := NewReserveWatcher(ws, time.Minute, nil)
	defer w.Close()

	if err := w.Watch(context.Background(), testPoolAddr); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if _, ok := w.Snapshot(testPoolAddr); ok {
		t.Error("snapshot before any notification should miss")
	}

	ws.Notify(testPoolAddr, notificationFixture(t, &domain.PoolState{
		BaseReserves:  1_000,
		QuoteReserves: 2_000,
		FeeBps:        100,
		Authority:     testAuthority(),
	}, 10))

	state := waitForSnapshot(t, w, testPoolAddr, func(s *domain.PoolState) bool {
		return s.Slot == 10
	})
	if state.BaseReserves != 1_000 || state.QuoteReserves != 2_000 {
		t.Errorf("reserves = (%d, %d), want (1000, 2000)", state.BaseReserves, state.QuoteReserves)
	}
	if state.PoolAddress != testPoolAddr {
		t.Errorf("PoolAddress = %s", state.PoolAddress)
	}
}

func TestReserveWatcherIgnoresStaleSlots(t *testing.T) {
	ws := stub.NewWSClient()
	w := NewReserveWatcher(ws, time.Minute, nil)
	defer w.Close()

	if err := w.Watch(context.Background(), testPoolAddr); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	ws.Notify(testPoolAddr, notificationFixture(t, &domain.PoolState{
		BaseReserves: 500, Authority: testAuthority(),
	}, 20))
	waitForSnapshot(t, w, testPoolAddr, func(s *domain.PoolState) bool { return s.Slot == 20 })

	// An older slot arriving after a reconnect must not clobber the
	// newer state.
	ws.Notify(testPoolAddr, notificationFixture(t, &domain.PoolState{
		BaseReserves: 999, Authority: testAuthority(),
	}, 15))
	ws.Notify(testPoolAddr, notificationFixture(t, &domain.PoolState{
		BaseReserves: 700, Authority: testAuthority(),
	}, 30))

	state := waitForSnapshot(t, w, testPoolAddr, func(s *domain.PoolState) bool { return s.Slot == 30 })
	if state.BaseReserves != 700 {
		t.Errorf("BaseReserves = %d, want 700", state.BaseReserves)
	}
}

func TestReserveWatcherStaleness(t *testing.T) {
	ws := stub.NewWSClient()
	w := NewReserveWatcher(ws, 20*time.Millisecond, nil)
	defer w.Close()

	if err := w.Watch(context.Background(), testPoolAddr); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	ws.Notify(testPoolAddr, notificationFixture(t, &domain.PoolState{
		BaseReserves: 100, Authority: testAuthority(),
	}, 1))
	waitForSnapshot(t, w, testPoolAddr, func(s *domain.PoolState) bool { return s.Slot == 1 })

	time.Sleep(50 * time.Millisecond)
	if _, ok := w.Snapshot(testPoolAddr); ok {
		t.Error("snapshot past the staleness bound should miss")
	}
}

func TestReserveWatcherStop(t *testing.T) {
	ws := stub.NewWSClient()
	w := NewReserveWatcher(ws, time.Minute, nil)
	defer w.Close()

	if err := w.Watch(context.Background(), testPoolAddr); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	// Watching the same pool twice is a no-op.
	if err := w.Watch(context.Background(), testPoolAddr); err != nil {
		t.Fatalf("second Watch: %v", err)
	}

	ws.Notify(testPoolAddr, notificationFixture(t, &domain.PoolState{
		BaseReserves: 100, Authority: testAuthority(),
	}, 1))
	waitForSnapshot(t, w, testPoolAddr, func(s *domain.PoolState) bool { return s.Slot == 1 })

	w.Stop(testPoolAddr)
	if _, ok := w.Snapshot(testPoolAddr); ok {
		t.Error("snapshot after Stop should miss")
	}
	// Stop must tear the subscription down server-side, not just stop
	// reading: otherwise notifications for the pool queue forever.
	if ws.Subscribed(testPoolAddr) {
		t.Error("subscription still active after Stop")
	}
}

func TestReserveWatcherCloseUnsubscribes(t *testing.T) {
	ws := stub.NewWSClient()
	w := NewReserveWatcher(ws, time.Minute, nil)

	if err := w.Watch(context.Background(), testPoolAddr); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	w.Close()
	if ws.Subscribed(testPoolAddr) {
		t.Error("subscription still active after Close")
	}
}

func TestReserveWatcherSubscribeError(t *testing.T) {
	ws := stub.NewWSClient()
	ws.SubscribeErr = stub.ErrUnavailable
	w := NewReserveWatcher(ws, time.Minute, nil)

	if err := w.Watch(context.Background(), testPoolAddr); err == nil {
		t.Fatal("expected subscribe error")
	}
	// A failed Watch must not leave the pool registered.
	ws.SubscribeErr = nil
	if err := w.Watch(context.Background(), testPoolAddr); err != nil {
		t.Fatalf("Watch after recovery: %v", err)
	}
	w.Close()
}
