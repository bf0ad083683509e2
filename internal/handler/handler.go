// Package handler implements the per-connection command loop: §4.I's
// dispatch rules for MULTI/EXEC/DISCARD and write fan-out to replicas
// ahead of local application. It drives connections clients and newly
// attaching replicas open to this server; the reverse direction — this
// server silently applying a stream from its own primary — is
// internal/replication.Client's applyLoop, which never touches Handler.
//
// Grounded on the teacher's internal/handler/handler.go for the
// per-connection task shape (one goroutine per net.Conn, a registered
// command table) generalized here to this server's Command interface and
// transaction rules instead of the teacher's larger command set.
package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"redislite/internal/command"
	"redislite/internal/protocol"
	"redislite/internal/replication"
	"redislite/internal/server"
	"redislite/internal/storage"
)

// Handler drives one accepted connection through its entire lifecycle.
type Handler struct {
	Store    *storage.Store
	Config   command.ConfigView
	Replicas *replication.Set
	Log      *logrus.Entry
}

type promoter struct {
	h    *Handler
	conn *server.Conn
}

func (p *promoter) PromoteToReplica() {
	p.h.Replicas.Add(p.conn)
}

// Handle runs the read-apply-reply loop for conn until it closes, a
// shutdown signal arrives, or the connection is promoted into the
// replica set (at which point PSYNC's own Apply has already taken over
// the socket and this loop returns).
func (h *Handler) Handle(ctx context.Context, conn *server.Conn, shutdown <-chan struct{}) {
	promoted := false
	defer func() {
		if !promoted {
			conn.Close()
		}
	}()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-shutdown:
			conn.Close()
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	inMulti := false
	var queued []protocol.RESP

	for {
		select {
		case <-shutdown:
			return
		case <-ctx.Done():
			return
		default:
		}

		v, length, err := conn.ReadNext()
		if err != nil {
			if h.Log != nil && !errors.Is(err, context.Canceled) {
				h.Log.WithField("conn", conn.ID).WithError(err).Debug("connection read error")
			}
			return
		}
		if v == nil {
			return
		}

		if v.Type != protocol.Array || len(v.Elems) == 0 {
			h.reply(conn, protocol.ErrorReply("ERR expected command array"))
			continue
		}
		name, err := firstElementString(*v)
		if err != nil {
			h.reply(conn, protocol.ErrorReply("ERR invalid command name"))
			continue
		}
		upperName := strings.ToUpper(name)

		if inMulti {
			switch upperName {
			case "EXEC":
				reply := h.runQueued(ctx, conn, queued)
				queued = nil
				inMulti = false
				h.reply(conn, reply)
			case "DISCARD":
				queued = nil
				inMulti = false
				h.reply(conn, protocol.SimpleString("OK"))
			default:
				queued = append(queued, *v)
				h.reply(conn, protocol.SimpleString("QUEUED"))
			}
			continue
		}

		switch upperName {
		case "MULTI":
			inMulti = true
			h.reply(conn, protocol.SimpleString("OK"))
			continue
		case "EXEC":
			h.reply(conn, protocol.ErrorReply("ERR EXEC without MULTI"))
			continue
		case "DISCARD":
			h.reply(conn, protocol.ErrorReply("ERR DISCARD without MULTI"))
			continue
		}

		args, err := protocol.NewArgReader(*v, 1)
		if err != nil {
			h.reply(conn, protocol.ErrorReply("ERR "+err.Error()))
			continue
		}
		cmd, err := command.Parse(name, args)
		if err != nil {
			h.reply(conn, protocol.ErrorReply(errReply(err)))
			continue
		}

		raw := protocol.Encode(*v)
		isWrite := false
		if w, ok := cmd.(command.Writer); ok {
			isWrite = w.IsWrite()
		}
		if isWrite && h.Config.Role() == "master" {
			h.Replicas.Propagate(raw)
		}
		if isWrite {
			h.Store.AddOffset(uint64(length))
		}

		resp, err := cmd.Apply(h.applyContext(ctx, conn))
		if _, isPsync := cmd.(*command.Psync); isPsync {
			promoted = err == nil
			return
		}
		if err != nil {
			h.reply(conn, protocol.ErrorReply(errReply(err)))
			continue
		}
		if resp != nil {
			h.reply(conn, *resp)
		}
	}
}

func (h *Handler) reply(conn *server.Conn, v protocol.RESP) {
	if err := conn.Write(v); err != nil && h.Log != nil {
		h.Log.WithField("conn", conn.ID).WithError(err).Debug("write error")
	}
}

func (h *Handler) applyContext(ctx context.Context, conn *server.Conn) *command.ApplyContext {
	return &command.ApplyContext{
		Ctx:      ctx,
		Store:    h.Store,
		Config:   h.Config,
		Replicas: h.Replicas,
		Promoter: &promoter{h: h, conn: conn},
		Conn:     conn,
	}
}

func (h *Handler) runQueued(ctx context.Context, conn *server.Conn, queued []protocol.RESP) protocol.RESP {
	elems := make([]protocol.RESP, 0, len(queued))
	for _, q := range queued {
		name, err := firstElementString(q)
		if err != nil {
			elems = append(elems, protocol.ErrorReply("ERR invalid queued command"))
			continue
		}
		args, err := protocol.NewArgReader(q, 1)
		if err != nil {
			elems = append(elems, protocol.ErrorReply("ERR "+err.Error()))
			continue
		}
		cmd, err := command.Parse(name, args)
		if err != nil {
			elems = append(elems, protocol.ErrorReply(errReply(err)))
			continue
		}
		resp, err := cmd.Apply(h.applyContext(ctx, conn))
		if err != nil {
			elems = append(elems, protocol.ErrorReply(errReply(err)))
			continue
		}
		if resp == nil {
			elems = append(elems, protocol.SimpleString("OK"))
			continue
		}
		elems = append(elems, *resp)
	}
	return protocol.ArrayReply(elems)
}

func firstElementString(v protocol.RESP) (string, error) {
	return elementStringAt(v, 0)
}

func elementStringAt(v protocol.RESP, i int) (string, error) {
	switch v.Elems[i].Type {
	case protocol.Bulk:
		return string(v.Elems[i].Bytes), nil
	case protocol.Simple:
		return v.Elems[i].Str, nil
	default:
		return "", protocol.ErrTypeMismatch
	}
}

func errReply(err error) string {
	msg := err.Error()
	if strings.HasPrefix(msg, "ERR") || strings.HasPrefix(msg, "WRONGTYPE") {
		return msg
	}
	return "ERR " + msg
}
