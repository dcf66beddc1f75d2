package dbclient

import (
	"context"
	"database/sql"
	"fmt"

	"sqlpad/internal/bridge"
)

// ListDatabases queries the server catalog for its databases. SQL Server
// reports the full set of catalog attributes; other drivers fill in names
// with default codes.
func ListDatabases(ctx context.Context, db *sql.DB, driver Driver) ([]bridge.DatabaseRow, error) {
	switch driver {
	case DriverSQLServer:
		return listSQLServerDatabases(ctx, db)
	case DriverPostgres:
		return listNamedDatabases(ctx, db,
			`SELECT datname FROM pg_database WHERE datistemplate = false ORDER BY datname`)
	case DriverMySQL:
		return listNamedDatabases(ctx, db, `SHOW DATABASES`)
	default:
		return []bridge.DatabaseRow{{Name: "main"}}, nil
	}
}

func listSQLServerDatabases(ctx context.Context, db *sql.DB) ([]bridge.DatabaseRow, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT name,
			CONVERT(varchar(33), create_date, 126),
			compatibility_level,
			is_read_only,
			state,
			recovery_model,
			is_encrypted
		FROM sys.databases
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list databases: %w", err)
	}
	defer rows.Close()

	var out []bridge.DatabaseRow
	for rows.Next() {
		var r bridge.DatabaseRow
		if err := rows.Scan(&r.Name, &r.CreateDate, &r.CompatibilityLevel,
			&r.IsReadOnly, &r.State, &r.RecoveryModel, &r.IsEncrypted); err != nil {
			return nil, fmt.Errorf("scan database row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func listNamedDatabases(ctx context.Context, db *sql.DB, query string) ([]bridge.DatabaseRow, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list databases: %w", err)
	}
	defer rows.Close()

	var out []bridge.DatabaseRow
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan database name: %w", err)
		}
		out = append(out, bridge.DatabaseRow{Name: name})
	}
	return out, rows.Err()
}
