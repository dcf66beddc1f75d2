// Package sqlexec services SQL requests arriving over the bridge. Each
// execution fans out across the requested databases in parallel and streams
// begin/batch-result/complete events back; the session core correlates them
// by instance id.
package sqlexec

import (
	"context"
	"log"
	"time"

	"sqlpad/internal/bridge"
	"sqlpad/internal/dbclient"
)

const fetchTimeout = 30 * time.Second

// Engine is the background SQL execution service.
type Engine struct {
	bus *bridge.Bus
}

// New creates an Engine and subscribes it to the bridge request events.
func New(bus *bridge.Bus) *Engine {
	e := &Engine{bus: bus}
	bus.On(bridge.FetchConnectionDbs, e.onFetchDbs)
	bus.On(bridge.ExecuteSQL, e.onExecute)
	bus.On(bridge.ParseSQL, e.onParse)
	return e
}

func (e *Engine) onFetchDbs(data any) {
	req, ok := data.(bridge.FetchDbsRequest)
	if !ok {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		reply := bridge.DbsFetched{ConnectionID: req.ConnectionID}
		cfg, err := dbclient.Parse(req.Raw)
		if err != nil {
			reply.Err = err
			e.bus.Emit(bridge.ConnectionDbsFetched, reply)
			return
		}
		db, err := dbclient.Open(cfg)
		if err != nil {
			reply.Err = err
			e.bus.Emit(bridge.ConnectionDbsFetched, reply)
			return
		}
		defer db.Close()

		reply.Dbs, reply.Err = dbclient.ListDatabases(ctx, db, cfg.Driver)
		e.bus.Emit(bridge.ConnectionDbsFetched, reply)
	}()
}

func (e *Engine) onExecute(data any) {
	req, ok := data.(bridge.ExecRequest)
	if !ok {
		return
	}
	go e.execute(req)
}

func (e *Engine) execute(req bridge.ExecRequest) {
	cfg, err := dbclient.Parse(req.Raw)
	if err != nil {
		e.bus.Emit(bridge.SQLExeComplete, bridge.ExecComplete{Err: err, InstanceID: req.InstanceID})
		return
	}

	batches := dbclient.SplitBatches(req.SQL)
	if len(batches) == 0 {
		e.bus.Emit(bridge.SQLExeComplete, bridge.ExecComplete{InstanceID: req.InstanceID})
		return
	}

	done := make(chan struct{}, len(req.Dbs))
	for _, name := range req.Dbs {
		go func(name string) {
			defer func() { done <- struct{}{} }()
			e.executeOn(cfg, name, batches, req)
		}(name)
	}
	for range req.Dbs {
		<-done
	}

	e.bus.Emit(bridge.SQLExeComplete, bridge.ExecComplete{InstanceID: req.InstanceID})
}

// executeOn runs the batches against one database, emitting one batch-result
// per batch and a db-complete when the database is finished. A failed batch
// stops the remaining batches for that database only.
func (e *Engine) executeOn(cfg dbclient.Config, name string, batches []string, req bridge.ExecRequest) {
	e.bus.Emit(bridge.SQLExeDBBegin, bridge.DBBegin{InstanceID: req.InstanceID, DB: name})
	defer e.bus.Emit(bridge.SQLExeDBComplete, bridge.DBComplete{InstanceID: req.InstanceID, DB: name})

	ctx := context.Background()
	if req.Opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.Opts.Timeout)*time.Second)
		defer cancel()
	}

	db, err := dbclient.OpenDatabase(cfg, name)
	if err != nil {
		log.Printf("[sqlexec] open %s: %v", name, err)
		e.bus.Emit(bridge.SQLExeDBBatchResult, bridge.DBBatchResult{
			Err: err, InstanceID: req.InstanceID, DB: name, AffectedRows: -1,
		})
		return
	}
	defer db.Close()

	for i, batch := range batches {
		start := time.Now()
		rows, affected, err := dbclient.RunBatch(ctx, db, batch)
		e.bus.Emit(bridge.SQLExeDBBatchResult, bridge.DBBatchResult{
			Err:          err,
			InstanceID:   req.InstanceID,
			DB:           name,
			BatchNumber:  i,
			Rows:         rows,
			AffectedRows: affected,
			Time:         time.Since(start).Milliseconds(),
		})
		if err != nil {
			return
		}
	}
}

func (e *Engine) onParse(data any) {
	req, ok := data.(bridge.ParseRequest)
	if !ok {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		reply := bridge.ParseComplete{InstanceID: req.InstanceID}
		cfg, err := dbclient.Parse(req.Raw)
		if err != nil {
			reply.Err = err
			e.bus.Emit(bridge.SQLParseComplete, reply)
			return
		}
		db, err := dbclient.Open(cfg)
		if err != nil {
			reply.Err = err
			e.bus.Emit(bridge.SQLParseComplete, reply)
			return
		}
		defer db.Close()

		reply.Errors = dbclient.ParseScript(ctx, db, cfg.Driver, req.SQL)
		e.bus.Emit(bridge.SQLParseComplete, reply)
	}()
}
