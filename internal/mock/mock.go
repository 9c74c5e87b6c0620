// Package mock provides a scripted connection.Connection for tests.
//
// Every method consults its corresponding Func field and falls back to
// a zero-value success when the field is nil, so a test only scripts
// the calls it cares about. Call counters record how often each method
// ran, letting tests assert that an operation short-circuited without
// reaching the backend.
package mock

import (
	"context"
	"sync/atomic"

	"github.com/setteedb/settee/pkg/connection"
)

// Connection is a test double for connection.Connection.
type Connection struct {
	ConnectFunc     func(ctx context.Context) error
	CloseFunc       func(ctx context.Context) error
	GetFunc         func(ctx context.Context, id string) (map[string]any, error)
	PutFunc         func(ctx context.Context, doc map[string]any) (connection.Ack, error)
	PostFunc        func(ctx context.Context, doc map[string]any) (connection.Ack, error)
	RemoveFunc      func(ctx context.Context, id, rev string) (connection.Ack, error)
	AllDocsFunc     func(ctx context.Context, includeDocs bool) ([]connection.Row, error)
	BulkGetFunc     func(ctx context.Context, refs []connection.BulkRef) ([]connection.BulkResult, error)
	FindFunc        func(ctx context.Context, query connection.Query) (connection.FindResult, error)
	CreateIndexFunc func(ctx context.Context, fields []string) (connection.IndexResult, error)
	DestroyFunc     func(ctx context.Context) error

	ConnectCalls     atomic.Int64
	CloseCalls       atomic.Int64
	GetCalls         atomic.Int64
	PutCalls         atomic.Int64
	PostCalls        atomic.Int64
	RemoveCalls      atomic.Int64
	AllDocsCalls     atomic.Int64
	BulkGetCalls     atomic.Int64
	FindCalls        atomic.Int64
	CreateIndexCalls atomic.Int64
	DestroyCalls     atomic.Int64
}

var _ connection.Connection = (*Connection)(nil)

// Create returns an unscripted mock where every call succeeds with
// zero values.
func Create() *Connection {
	return &Connection{}
}

func (c *Connection) Connect(ctx context.Context) error {
	c.ConnectCalls.Add(1)
	if c.ConnectFunc != nil {
		return c.ConnectFunc(ctx)
	}
	return nil
}

func (c *Connection) Close(ctx context.Context) error {
	c.CloseCalls.Add(1)
	if c.CloseFunc != nil {
		return c.CloseFunc(ctx)
	}
	return nil
}

func (c *Connection) Get(ctx context.Context, id string) (map[string]any, error) {
	c.GetCalls.Add(1)
	if c.GetFunc != nil {
		return c.GetFunc(ctx, id)
	}
	return nil, nil
}

func (c *Connection) Put(ctx context.Context, doc map[string]any) (connection.Ack, error) {
	c.PutCalls.Add(1)
	if c.PutFunc != nil {
		return c.PutFunc(ctx, doc)
	}
	return connection.Ack{}, nil
}

func (c *Connection) Post(ctx context.Context, doc map[string]any) (connection.Ack, error) {
	c.PostCalls.Add(1)
	if c.PostFunc != nil {
		return c.PostFunc(ctx, doc)
	}
	return connection.Ack{}, nil
}

func (c *Connection) Remove(ctx context.Context, id, rev string) (connection.Ack, error) {
	c.RemoveCalls.Add(1)
	if c.RemoveFunc != nil {
		return c.RemoveFunc(ctx, id, rev)
	}
	return connection.Ack{}, nil
}

func (c *Connection) AllDocs(ctx context.Context, includeDocs bool) ([]connection.Row, error) {
	c.AllDocsCalls.Add(1)
	if c.AllDocsFunc != nil {
		return c.AllDocsFunc(ctx, includeDocs)
	}
	return nil, nil
}

func (c *Connection) BulkGet(ctx context.Context, refs []connection.BulkRef) ([]connection.BulkResult, error) {
	c.BulkGetCalls.Add(1)
	if c.BulkGetFunc != nil {
		return c.BulkGetFunc(ctx, refs)
	}
	return nil, nil
}

func (c *Connection) Find(ctx context.Context, query connection.Query) (connection.FindResult, error) {
	c.FindCalls.Add(1)
	if c.FindFunc != nil {
		return c.FindFunc(ctx, query)
	}
	return connection.FindResult{}, nil
}

func (c *Connection) CreateIndex(ctx context.Context, fields []string) (connection.IndexResult, error) {
	c.CreateIndexCalls.Add(1)
	if c.CreateIndexFunc != nil {
		return c.CreateIndexFunc(ctx, fields)
	}
	return connection.IndexResult{}, nil
}

func (c *Connection) Destroy(ctx context.Context) error {
	c.DestroyCalls.Add(1)
	if c.DestroyFunc != nil {
		return c.DestroyFunc(ctx)
	}
	return nil
}
