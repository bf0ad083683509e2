package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"redislite/internal/handler"
	"redislite/internal/rdb"
	"redislite/internal/replication"
	"redislite/internal/storage"
)

// Server owns the listener, the keyspace, and (on either role) the
// replication wiring that connects them.
type Server struct {
	cfg   *Config
	store *storage.Store
	log   *logrus.Entry

	replicas *replication.Set
	ln       *Listener
}

func New(cfg *Config, log *logrus.Entry) *Server {
	store := storage.NewStore()
	s := &Server{
		cfg:   cfg,
		store: store,
		log:   log,
	}
	s.replicas = replication.NewSet(store, log.WithField("component", "replication"))
	store.SetReplID(generateReplID())
	return s
}

// generateReplID produces the 40-character hex string a primary reports in
// its FULLRESYNC reply and INFO replication's master_replid field.
func generateReplID() string {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return hex.EncodeToString(make([]byte, 20))
	}
	return hex.EncodeToString(b)
}

// Run loads any on-disk RDB snapshot, starts the replica-side handshake
// if configured as a replica, binds the listener, and serves until ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.loadRDB(); err != nil {
		s.log.WithError(err).Warn("failed to load RDB snapshot, starting with an empty keyspace")
	}

	if s.cfg.ReplicaOf != "" {
		go s.runReplicaClient(ctx)
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", addr, err)
	}
	s.log.WithField("addr", addr).Info("listening")

	s.ln = NewListener(ln, s.log, s.handleConn)
	done := make(chan struct{})
	go func() {
		s.ln.Serve(ctx)
		close(done)
	}()

	<-ctx.Done()
	s.ln.Shutdown()
	<-done
	s.store.Close()
	return nil
}

func (s *Server) handleConn(ctx context.Context, conn *Conn) {
	h := &handler.Handler{
		Store:    s.store,
		Config:   s.cfg,
		Replicas: s.replicas,
		Log:      s.log,
	}
	h.Handle(ctx, conn, ctx.Done())
}

func (s *Server) loadRDB() error {
	path := filepath.Join(s.cfg.DirPath, s.cfg.DBFile)
	entries, skipped, err := rdb.Load(path)
	if err != nil {
		return err
	}
	if skipped > 0 {
		s.log.WithField("skipped", skipped).Info("RDB load skipped non-string keys")
	}
	now := time.Now()
	for _, e := range entries {
		var expiresAt *time.Time
		if e.ExpiresMs > 0 {
			t := time.UnixMilli(e.ExpiresMs)
			if t.Before(now) {
				continue
			}
			expiresAt = &t
		}
		s.store.Set(e.Key, storage.NewStringValue(e.Value, expiresAt))
	}
	if len(entries) > 0 {
		s.log.WithField("keys", len(entries)).Info("loaded RDB snapshot")
	}
	return nil
}

func (s *Server) runReplicaClient(ctx context.Context) {
	host, port, err := splitReplicaOf(s.cfg.ReplicaOf)
	if err != nil {
		s.log.WithError(err).Error("invalid replicaof setting")
		return
	}
	client := replication.NewClient(s.store, s.cfg, s.log.WithField("component", "replica-client"))
	addr := fmt.Sprintf("%s:%d", host, port)
	if err := client.Run(ctx, addr, s.cfg.Port); err != nil {
		s.log.WithError(err).Error("replication client stopped")
	}
}

func splitReplicaOf(spec string) (string, int, error) {
	var host string
	var port int
	if _, err := fmt.Sscanf(spec, "%s %d", &host, &port); err != nil {
		return "", 0, fmt.Errorf("server: expected \"host port\", got %q", spec)
	}
	return host, port, nil
}
