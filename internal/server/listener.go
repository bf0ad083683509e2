package server

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const maxAcceptBackoff = 32 * time.Second

// Listener runs the accept loop: one goroutine per connection and
// exponential backoff on transient Accept errors. Each handler receives
// the ctx passed to Serve; cancelling it is the stop notification that
// reaches every in-flight connection at once. The shutdown channel is
// internal to the accept loop and is not passed to handlers.
type Listener struct {
	ln       net.Listener
	log      *logrus.Entry
	handle   func(ctx context.Context, conn *Conn)
	shutdown chan struct{}
	wg       sync.WaitGroup
}

func NewListener(ln net.Listener, log *logrus.Entry, handle func(ctx context.Context, conn *Conn)) *Listener {
	return &Listener{ln: ln, log: log, handle: handle, shutdown: make(chan struct{})}
}

// Serve accepts connections until ctx is cancelled or Shutdown is called,
// backing off 1s, 2s, 4s, ... capped at 32s on repeated Accept errors.
func (l *Listener) Serve(ctx context.Context) {
	backoff := time.Second
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.shutdown:
			return
		default:
		}

		conn, err := l.ln.Accept()
		if err != nil {
			select {
			case <-l.shutdown:
				return
			default:
			}
			if l.log != nil {
				l.log.WithError(err).WithField("backoff", backoff).Warn("accept error, backing off")
			}
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return
			case <-l.shutdown:
				return
			}
			if backoff < maxAcceptBackoff {
				backoff *= 2
				if backoff > maxAcceptBackoff {
					backoff = maxAcceptBackoff
				}
			}
			continue
		}
		backoff = time.Second

		c := NewConn(conn)
		if l.log != nil {
			l.log.WithField("conn", c.ID).WithField("remote", conn.RemoteAddr()).Info("connection accepted")
		}

		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			l.handle(ctx, c)
		}()
	}
}

// Shutdown stops accepting new connections and blocks until every
// in-flight handler goroutine has exited, giving deterministic graceful
// shutdown.
func (l *Listener) Shutdown() {
	close(l.shutdown)
	l.ln.Close()
	l.wg.Wait()
}
