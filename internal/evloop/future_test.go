package evloop

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestFuture_FirstSettlementWins(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	loop := New(nil)
	fut := loop.NewFuture()
	fut.Resolve("first")
	fut.Fail(errors.New("second"))

	// --- Act ---
	value, err := loop.RunUntilComplete(fut)

	// --- Assert ---
	require.NoError(t, err)
	require.Equal(t, "first", value)
}

func TestFuture_OnSettle_RunsCallbacksOnTheLoop(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	loop := New(nil)
	fut := loop.NewFuture()
	final := loop.NewFuture()
	var got []string
	fut.OnSettle(func(value any, err error) {
		got = append(got, "early")
	})
	fut.Resolve("v")
	fut.OnSettle(func(value any, err error) {
		got = append(got, "late")
		final.Resolve(nil)
	})

	// --- Act ---
	_, err := loop.RunUntilComplete(final)

	// --- Assert ---
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"early", "late"}, got); diff != "" {
		t.Errorf("callback order mismatch (-want +got):\n%s", diff)
	}
}

func TestFuture_Result_BeforeSettlement(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	loop := New(nil)
	fut := loop.NewFuture()

	// --- Act ---
	_, err := fut.Result()

	// --- Assert ---
	require.ErrorIs(t, err, ErrNotSettled)
}

func TestFuture_Await_SeesValueWhileAnotherGoroutineDrives(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	loop := New(nil)
	fut := loop.NewFuture()
	driven := make(chan struct{})
	go func() {
		defer close(driven)
		_, _ = loop.RunUntilComplete(fut)
	}()
	go func() {
		time.Sleep(5 * time.Millisecond)
		fut.Resolve("ready")
	}()

	// --- Act ---
	value, err := fut.Await(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	require.Equal(t, "ready", value)
	<-driven
}

func TestFuture_Await_HonoursContextCancellation(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	loop := New(nil)
	fut := loop.NewFuture()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	// --- Act ---
	_, err := fut.Await(ctx)

	// --- Assert ---
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
