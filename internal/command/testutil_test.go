package command

import (
	"context"

	"redislite/internal/protocol"
	"redislite/internal/storage"
)

type fakeConfig struct {
	role       string
	dir        string
	dbfilename string
}

func (f *fakeConfig) Role() string       { return f.role }
func (f *fakeConfig) Dir() string        { return f.dir }
func (f *fakeConfig) DBFilename() string { return f.dbfilename }

type fakeReplicas struct {
	count    int
	waitFunc func(ctx context.Context, n, timeoutMs int) int
}

func (f *fakeReplicas) Count() int { return f.count }
func (f *fakeReplicas) Wait(ctx context.Context, n int, timeoutMs int) int {
	if f.waitFunc != nil {
		return f.waitFunc(ctx, n, timeoutMs)
	}
	return f.count
}

type fakePromoter struct {
	promoted bool
}

func (f *fakePromoter) PromoteToReplica() { f.promoted = true }

type fakeConn struct {
	writes []protocol.RESP
}

func (f *fakeConn) WriteRaw(v protocol.RESP) error {
	f.writes = append(f.writes, v)
	return nil
}

func newTestContext(store *storage.Store) (*ApplyContext, *fakeConn, *fakePromoter) {
	conn := &fakeConn{}
	promoter := &fakePromoter{}
	ctx := &ApplyContext{
		Ctx:      context.Background(),
		Store:    store,
		Config:   &fakeConfig{role: "master", dir: "/data", dbfilename: "dump.rdb"},
		Replicas: &fakeReplicas{count: 0},
		Promoter: promoter,
		Conn:     conn,
	}
	return ctx, conn, promoter
}
