package reconcile

import (
	"context"
	"time"
)

// Conn is one established push-channel connection. Read blocks until the
// next frame arrives and returns an error once the connection is gone;
// closing the Conn unblocks a pending Read.
type Conn interface {
	Read() ([]byte, error)
	Close() error
}

// Dialer opens the push channel to the engine. Implementations must honor
// context cancellation while connecting.
type Dialer func(ctx context.Context) (Conn, error)

// run drives the disconnected -> connecting -> connected cycle until the
// context is canceled by Shutdown. A channel error is never fatal: the loop
// backs off and redials indefinitely.
func (c *Coordinator) run(ctx context.Context) {
	defer c.wg.Done()
	for {
		conn, err := c.dialer(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn().Err(err).Msg("sync: event link dial failed")
			c.setState(StateDisconnected)
			c.metrics.Reconnect()
			if !c.await(ctx, c.reconnectDelay) {
				return
			}
			c.setState(StateConnecting)
			continue
		}

		if !c.attach(conn) {
			// Shutdown raced the dial.
			conn.Close()
			return
		}
		c.logger.Info().Msg("sync: event link connected")
		c.metrics.SetConnected(true)
		c.startPoller(ctx)

		c.readLoop(ctx, conn)

		conn.Close()
		c.detach()
		c.metrics.SetConnected(false)
		if ctx.Err() != nil {
			return
		}
		c.logger.Warn().Msg("sync: event link lost, reconnecting")
		c.metrics.Reconnect()
		if !c.await(ctx, c.reconnectDelay) {
			return
		}
		c.setState(StateConnecting)
	}
}

// readLoop pumps frames from the connection into the apply path until the
// connection errors out. The poller is untouched here: it keeps running
// across disconnects and is the consistency backstop while the link is down.
func (c *Coordinator) readLoop(ctx context.Context, conn Conn) {
	for {
		data, err := conn.Read()
		if err != nil {
			if ctx.Err() == nil {
				c.logger.Debug().Err(err).Msg("sync: event link read ended")
			}
			return
		}
		c.handleFrame(data, sourcePush)
	}
}

// attach publishes the live connection, unless shutdown already began.
func (c *Coordinator) attach(conn Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosing {
		return false
	}
	c.conn = conn
	c.state = StateConnected
	return true
}

func (c *Coordinator) detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn = nil
	if c.state != StateClosing {
		c.state = StateDisconnected
	}
}

func (c *Coordinator) setState(next State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateClosing {
		c.state = next
	}
}

// await sleeps for the backoff delay, returning false when canceled. This is
// the pending reconnect timer Shutdown must be able to cancel.
func (c *Coordinator) await(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}
