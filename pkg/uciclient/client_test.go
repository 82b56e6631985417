package uciclient_test

import (
	"context"
	"testing"
	"time"

	"github.com/arrowgate/chessd/pkg/uciclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoScript starts a child process that echoes "echo: <line>" for every
// line it reads on stdin, to exercise Client against a real subprocess
// without depending on chessd-engine being built.
func echoScript(t *testing.T) *uciclient.Client {
	t.Helper()
	c, err := uciclient.Start(context.Background(), "/bin/sh", "-c",
		`while IFS= read -r line; do echo "echo: $line"; done`)
	require.NoError(t, err)
	t.Cleanup(func() { c.Shutdown(50 * time.Millisecond) })
	return c
}

func TestAwaitMatchesLine(t *testing.T) {
	c := echoScript(t)

	require.NoError(t, c.Send("ping"))

	line, err := c.Await(context.Background(), uciclient.HasPrefix("echo: ping"), time.Second, "")
	require.NoError(t, err)
	assert.Equal(t, "echo: ping", line)
}

func TestAwaitResolvesFirstMatchingWaiterOnly(t *testing.T) {
	c := echoScript(t)

	type res struct {
		line string
		err  error
	}
	first := make(chan res, 1)
	second := make(chan res, 1)

	go func() {
		line, err := c.Await(context.Background(), uciclient.HasPrefix("echo: a"), time.Second, "")
		first <- res{line, err}
	}()
	time.Sleep(20 * time.Millisecond) // ensure FIFO ordering of the two waiters
	go func() {
		line, err := c.Await(context.Background(), uciclient.HasPrefix("echo: a"), time.Second, "")
		second <- res{line, err}
	}()
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, c.Send("a1"))
	require.NoError(t, c.Send("a2"))

	r1 := <-first
	require.NoError(t, r1.err)
	assert.Equal(t, "echo: a1", r1.line)

	r2 := <-second
	require.NoError(t, r2.err)
	assert.Equal(t, "echo: a2", r2.line)
}

func TestObserverSeesEveryLine(t *testing.T) {
	c := echoScript(t)

	lines := make(chan string, 10)
	cancel := c.Observe(func(line string) { lines <- line })
	defer cancel()

	require.NoError(t, c.Send("one"))
	require.NoError(t, c.Send("two"))

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case line := <-lines:
			seen[line] = true
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for observed line")
		}
	}
	assert.True(t, seen["echo: one"])
	assert.True(t, seen["echo: two"])
}

func TestAwaitTimesOutWhenNoLineMatches(t *testing.T) {
	c := echoScript(t)

	_, err := c.Await(context.Background(), uciclient.HasPrefix("never matches"), 50*time.Millisecond, "")
	assert.ErrorIs(t, err, uciclient.ErrTimeout)
}

func TestCancelRequestEvictsTaggedWaiter(t *testing.T) {
	c := echoScript(t)

	done := make(chan error, 1)
	go func() {
		_, err := c.Await(context.Background(), uciclient.HasPrefix("never matches"), 5*time.Second, "req-1")
		done <- err
	}()
	time.Sleep(20 * time.Millisecond)

	c.CancelRequest("req-1")

	select {
	case err := <-done:
		assert.ErrorIs(t, err, uciclient.ErrCancelled)
	case <-time.After(time.Second):
		t.Fatal("CancelRequest did not unblock Await")
	}
}

func TestSendAfterCloseFails(t *testing.T) {
	c := echoScript(t)
	c.Shutdown(50 * time.Millisecond)

	<-c.Closed()
	assert.ErrorIs(t, c.Send("anything"), uciclient.ErrClosed)
}
