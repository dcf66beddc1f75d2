package dbclient_test

import (
	"testing"

	"sqlpad/internal/dbclient"
)

func TestSplitBatches(t *testing.T) {
	script := "SELECT 1\nGO\nSELECT 2\ngo\nSELECT 3"
	batches := dbclient.SplitBatches(script)
	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %d: %v", len(batches), batches)
	}
	if batches[0] != "SELECT 1" || batches[2] != "SELECT 3" {
		t.Errorf("unexpected batch content: %v", batches)
	}
}

func TestSplitBatches_CountAndWhitespace(t *testing.T) {
	script := "UPDATE t SET x = 1\n  GO 5  \nSELECT 1"
	batches := dbclient.SplitBatches(script)
	if len(batches) != 2 {
		t.Fatalf("expected 'GO 5' treated as separator, got %d batches", len(batches))
	}
}

func TestSplitBatches_GoInsideStatementIsKept(t *testing.T) {
	script := "SELECT 'go' AS word\nGO home -- not a separator"
	batches := dbclient.SplitBatches(script)
	if len(batches) != 1 {
		t.Fatalf("expected 1 batch, got %d: %v", len(batches), batches)
	}
}

func TestSplitBatches_DropsEmptyBatches(t *testing.T) {
	script := "GO\n\nGO\nSELECT 1\nGO\nGO"
	batches := dbclient.SplitBatches(script)
	if len(batches) != 1 || batches[0] != "SELECT 1" {
		t.Fatalf("expected empty batches dropped, got %v", batches)
	}
}

func TestParse_DriverDetection(t *testing.T) {
	cases := []struct {
		raw    string
		driver dbclient.Driver
		dsn    string
	}{
		{"sqlserver://sa:pw@localhost", dbclient.DriverSQLServer, "sqlserver://sa:pw@localhost"},
		{"Server=localhost;User Id=sa;Password=pw", dbclient.DriverSQLServer, "Server=localhost;User Id=sa;Password=pw"},
		{"postgres://user@localhost/db", dbclient.DriverPostgres, "postgres://user@localhost/db"},
		{"postgresql://user@localhost/db", dbclient.DriverPostgres, "postgresql://user@localhost/db"},
		{"mysql://user:pw@tcp(localhost:3306)/db", dbclient.DriverMySQL, "user:pw@tcp(localhost:3306)/db"},
		{"sqlite:///tmp/app.db", dbclient.DriverSQLite, "/tmp/app.db"},
		{"/home/user/data.sqlite", dbclient.DriverSQLite, "/home/user/data.sqlite"},
	}
	for _, tc := range cases {
		cfg, err := dbclient.Parse(tc.raw)
		if err != nil {
			t.Errorf("Parse(%q): %v", tc.raw, err)
			continue
		}
		if cfg.Driver != tc.driver {
			t.Errorf("Parse(%q): expected driver %s, got %s", tc.raw, tc.driver, cfg.Driver)
		}
		if cfg.DSN != tc.dsn {
			t.Errorf("Parse(%q): expected dsn %q, got %q", tc.raw, tc.dsn, cfg.DSN)
		}
	}
}

func TestParse_Empty(t *testing.T) {
	if _, err := dbclient.Parse("   "); err == nil {
		t.Error("expected error for blank connection string")
	}
}
