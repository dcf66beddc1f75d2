package mcpserver

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"sqlpad/internal/dbclient"
)

const toolQueryTimeout = 60 * time.Second

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("list_connections",
		mcp.WithDescription("List the registered database connections"),
	), s.handleListConnections)

	s.mcp.AddTool(mcp.NewTool("list_databases",
		mcp.WithDescription("List the databases on a registered connection"),
		mcp.WithString("connectionId", mcp.Description("Connection ID"), mcp.Required()),
	), s.handleListDatabases)

	s.mcp.AddTool(mcp.NewTool("run_sql",
		mcp.WithDescription("Run a SQL script against one database of a registered connection. Batches separated by GO lines run in order."),
		mcp.WithString("connectionId", mcp.Description("Connection ID"), mcp.Required()),
		mcp.WithString("database", mcp.Description("Database name"), mcp.Required()),
		mcp.WithString("sql", mcp.Description("SQL script to run"), mcp.Required()),
	), s.handleRunSQL)
}

type connSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Server   string `json:"server"`
	Username string `json:"username"`
}

func (s *Server) handleListConnections(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	conns := s.session.ConnectionInfos()
	out := make([]connSummary, len(conns))
	for i, c := range conns {
		out[i] = connSummary{ID: c.ID, Name: c.Name, Server: c.Server, Username: c.Username}
	}
	return jsonResult(out)
}

func (s *Server) handleListDatabases(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	connID := req.GetString("connectionId", "")
	if connID == "" {
		return nil, fmt.Errorf("connectionId is required")
	}
	conn, ok := s.session.ConnectionInfo(connID)
	if !ok {
		return nil, fmt.Errorf("connection %s not found", connID)
	}

	cfg, err := dbclient.Parse(conn.Raw)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	db, err := dbclient.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(ctx, toolQueryTimeout)
	defer cancel()

	rows, err := dbclient.ListDatabases(ctx, db, cfg.Driver)
	if err != nil {
		return nil, fmt.Errorf("list databases: %w", err)
	}
	return jsonResult(rows)
}

type batchOutcome struct {
	Rows         [][]any `json:"rows,omitempty"`
	AffectedRows int64   `json:"affectedRows"`
	Error        string  `json:"error,omitempty"`
}

func (s *Server) handleRunSQL(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	connID, _ := args["connectionId"].(string)
	dbName, _ := args["database"].(string)
	script, _ := args["sql"].(string)

	if connID == "" || dbName == "" || script == "" {
		return nil, fmt.Errorf("connectionId, database and sql are required")
	}

	conn, ok := s.session.ConnectionInfo(connID)
	if !ok {
		return nil, fmt.Errorf("connection %s not found", connID)
	}

	cfg, err := dbclient.Parse(conn.Raw)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	db, err := dbclient.OpenDatabase(cfg, dbName)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", dbName, err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(ctx, toolQueryTimeout)
	defer cancel()

	var out []batchOutcome
	for _, batch := range dbclient.SplitBatches(script) {
		rows, affected, err := dbclient.RunBatch(ctx, db, batch)
		outcome := batchOutcome{Rows: rows, AffectedRows: affected}
		if err != nil {
			outcome.Error = err.Error()
			out = append(out, outcome)
			break
		}
		out = append(out, outcome)
	}
	return jsonResult(out)
}
