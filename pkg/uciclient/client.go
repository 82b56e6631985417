// Package uciclient wraps a UCI-speaking child process's standard streams as
// an asynchronous, line-buffered duplex channel, the orchestrator's side of
// the line protocol a chessd-engine process speaks.
//
// Two kinds of listener share the same incoming line stream: a FIFO of
// waiters, each wanting a single line matching some predicate (a caller doing
// "send go, then wait for bestmove"), and a set of observers, each wanting
// every line (a caller doing passive info-line telemetry). A line resolves at
// most one waiter - the first whose predicate matches, in FIFO order - and
// every observer; the order among observers is not defined.
package uciclient

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/util/iox"
	"go.uber.org/atomic"
)

// ErrTimeout is returned by Await when no matching line arrives before the
// deadline. The spec calls this condition "engine timeout".
var ErrTimeout = errors.New("engine timeout")

// ErrClosed is returned by Send and by any pending Await when the underlying
// process has exited or Close was called.
var ErrClosed = errors.New("uci client closed")

// ErrCancelled is returned to a waiter that CancelRequest evicted before it
// was naturally resolved.
var ErrCancelled = errors.New("request cancelled")

// Predicate reports whether line is the one a waiter is looking for.
type Predicate func(line string) bool

// HasPrefix returns a Predicate matching any line starting with prefix.
func HasPrefix(prefix string) Predicate {
	return func(line string) bool { return strings.HasPrefix(line, prefix) }
}

type waiter struct {
	pred      Predicate
	requestID string
	result    chan result
	timer     *time.Timer
	done      atomic.Bool // guards against double-send on race between match and timeout
}

type result struct {
	line string
	err  error
}

// Client manages a single chessd-engine (or any UCI-speaking) child process:
// Send writes commands from the caller's goroutine, one goroutine reads lines
// out. Safe for
// concurrent use by multiple goroutines; the caller is responsible for not
// interleaving two logically distinct commands it expects serialized
// responses for (that discipline lives in the supervisor's task queue, not
// here).
type Client struct {
	iox.AsyncCloser

	cmd   *exec.Cmd
	stdin io.WriteCloser

	mu        sync.Mutex
	waiters   []*waiter
	observers map[int]func(string)
	nextObs   int
}

// Start launches path as a child process and begins reading its stdout line
// by line. The child's stderr is left attached to this process's stderr for
// diagnostics.
func Start(ctx context.Context, path string, args ...string) (*Client, error) {
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("uciclient: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("uciclient: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("uciclient: start %v: %w", path, err)
	}

	c := &Client{
		AsyncCloser: iox.NewAsyncCloser(),
		cmd:         cmd,
		stdin:       stdin,
		observers:   map[int]func(string){},
	}
	go c.readLoop(ctx, stdout)
	go c.awaitExit(ctx)
	return c, nil
}

func (c *Client) readLoop(ctx context.Context, stdout io.Reader) {
	defer c.Close()

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		logw.Debugf(ctx, "<< %v", line)
		c.handleLine(line)
	}
}

func (c *Client) awaitExit(ctx context.Context) {
	err := c.cmd.Wait()
	if err != nil {
		logw.Warningf(ctx, "Engine process exited: %v", err)
	}
	c.Close()
}

func (c *Client) handleLine(line string) {
	c.mu.Lock()
	obs := make([]func(string), 0, len(c.observers))
	for _, fn := range c.observers {
		obs = append(obs, fn)
	}

	idx := -1
	for i, w := range c.waiters {
		if w.pred(line) {
			idx = i
			break
		}
	}
	var w *waiter
	if idx >= 0 {
		w = c.waiters[idx]
		c.waiters = append(c.waiters[:idx], c.waiters[idx+1:]...)
	}
	c.mu.Unlock()

	// Observers run outside the lock so they may themselves call back into
	// the client (e.g. to register another observer) without deadlocking.
	for _, fn := range obs {
		fn(line)
	}
	if w != nil {
		w.resolve(result{line: line})
	}
}

func (w *waiter) resolve(r result) {
	if !w.done.CAS(false, true) {
		return
	}
	w.timer.Stop()
	w.result <- r
}

// Observe registers fn to be invoked, synchronously and in line order, for
// every line this client reads. The returned func deregisters it.
func (c *Client) Observe(fn func(line string)) (cancel func()) {
	c.mu.Lock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

// Send writes line, terminated by a newline, to the child's stdin.
func (c *Client) Send(line string) error {
	select {
	case <-c.Closed():
		return ErrClosed
	default:
	}

	logw.Debugf(context.Background(), ">> %v", line)
	if _, err := io.WriteString(c.stdin, line+"\n"); err != nil {
		return fmt.Errorf("uciclient: write: %w", err)
	}
	return nil
}

// Await blocks until a line matching pred arrives, timeout elapses, or the
// client closes, whichever comes first. requestID, if non-empty, tags the
// waiter so a later CancelRequest can evict it.
func (c *Client) Await(ctx context.Context, pred Predicate, timeout time.Duration, requestID string) (string, error) {
	select {
	case <-c.Closed():
		return "", ErrClosed
	default:
	}

	w := &waiter{
		pred:      pred,
		requestID: requestID,
		result:    make(chan result, 1),
	}
	w.timer = time.AfterFunc(timeout, func() {
		c.evict(w)
		w.resolve(result{err: ErrTimeout})
	})

	c.mu.Lock()
	c.waiters = append(c.waiters, w)
	c.mu.Unlock()

	select {
	case r := <-w.result:
		return r.line, r.err
	case <-c.Closed():
		c.evict(w)
		w.resolve(result{err: ErrClosed})
		return "", ErrClosed
	case <-ctx.Done():
		c.evict(w)
		w.resolve(result{err: ctx.Err()})
		return "", ctx.Err()
	}
}

func (c *Client) evict(w *waiter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, cand := range c.waiters {
		if cand == w {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			return
		}
	}
}

// CancelRequest evicts and resolves (with ErrCancelled) every pending waiter
// tagged with requestID. Used by the supervisor to clean up after a handler
// returns, whether it succeeded, timed out, or errored.
func (c *Client) CancelRequest(requestID string) {
	if requestID == "" {
		return
	}

	c.mu.Lock()
	var evicted []*waiter
	kept := c.waiters[:0:0]
	for _, w := range c.waiters {
		if w.requestID == requestID {
			evicted = append(evicted, w)
			continue
		}
		kept = append(kept, w)
	}
	c.waiters = kept
	c.mu.Unlock()

	for _, w := range evicted {
		w.resolve(result{err: ErrCancelled})
	}
}

// Close terminates the client: it stops accepting new waiters (pending ones
// resolve with ErrClosed) but does not itself kill the child process; callers
// owning process lifecycle should send "quit" and/or call Kill.
func (c *Client) Close() {
	c.AsyncCloser.Close()
}

// Kill forcibly terminates the child process, for use after a graceful
// Send("quit") has not led to exit within a grace period.
func (c *Client) Kill() error {
	if c.cmd.Process == nil {
		return nil
	}
	return c.cmd.Process.Kill()
}

// Shutdown sends "quit", waits up to grace for the process to exit on its
// own, and kills it otherwise. Matches a careful process-owning caller's
// shutdown discipline; the process is never automatically restarted.
func (c *Client) Shutdown(grace time.Duration) {
	_ = c.Send("quit")

	select {
	case <-c.Closed():
	case <-time.After(grace):
		_ = c.Kill()
	}
}
