package bridge

// Event names. The core emits the request events; services reply with the
// remaining ones. Errors travel as values inside the payloads, never as
// panics, because they cross an asynchronous boundary.
const (
	// core → services
	FetchConnectionDbs = "fetch-connection-dbs"
	ExecuteSQL         = "execute-sql"
	ParseSQL           = "parse-sql"

	// services → core
	ConnectionDbsFetched = "connection-dbs-fetched"
	SQLExeDBBegin        = "sql-exe-db-begin"
	SQLExeDBBatchResult  = "sql-exe-db-batch-result"
	SQLExeDBComplete     = "sql-exe-db-complete"
	SQLExeComplete       = "sql-exe-complete"
	SQLParseComplete     = "sql-parse-complete"
	DownloadCompleted    = "download-completed"
	FileDialogClosed     = "file-dialog-closed"
)

// FetchDbsRequest asks the engine to list the databases on a server.
type FetchDbsRequest struct {
	Raw          string
	ConnectionID string
}

// DatabaseRow is one row of the server's database catalog.
type DatabaseRow struct {
	Name               string
	CreateDate         string
	CompatibilityLevel int
	IsReadOnly         bool
	State              int
	RecoveryModel      int
	IsEncrypted        bool
}

// DbsFetched is the reply to FetchDbsRequest.
type DbsFetched struct {
	Err          error
	Dbs          []DatabaseRow
	ConnectionID string
}

// ExecOptions carries per-request execution options.
type ExecOptions struct {
	Timeout int // seconds, 0 = driver default
}

// ExecRequest submits a script for execution against a set of databases.
type ExecRequest struct {
	Raw        string
	Dbs        []string
	SQL        string
	InstanceID string
	Opts       ExecOptions
}

// ParseRequest submits a script for a syntax-only check.
type ParseRequest struct {
	Raw        string
	SQL        string
	InstanceID string
}

// DBBegin signals that execution started on one database.
type DBBegin struct {
	Err        error
	InstanceID string
	DB         string
}

// DBBatchResult carries one batch's outcome for one database. Rows includes
// the header row as its first element and is nil for non-row batches;
// AffectedRows is -1 when not applicable.
type DBBatchResult struct {
	Err          error
	InstanceID   string
	DB           string
	BatchNumber  int
	Rows         [][]any
	AffectedRows int64
	Time         int64 // elapsed ms
}

// DBComplete signals that one database finished (successfully or not).
type DBComplete struct {
	Err        error
	InstanceID string
	DB         string
}

// ExecComplete is the terminal event for a whole execution. Err is non-nil
// only when the run aborted before any per-database work happened.
type ExecComplete struct {
	Err        error
	InstanceID string
}

// ParseError is one structural error found while parsing.
type ParseError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// ParseComplete is the reply to ParseRequest.
type ParseComplete struct {
	Err        error
	InstanceID string
	Errors     []ParseError
}

// DownloadDone reports the outcome of saving an instance's script to disk.
type DownloadDone struct {
	Success    bool
	Path       string
	InstanceID string
}

// FileInfo describes one file picked in a native dialog. Path is the
// absolute path, so the file can be re-read and watched later; directories
// carry Type "directory" and no size.
type FileInfo struct {
	Name       string `json:"name"`
	Path       string `json:"path"`
	Size       int64  `json:"size,omitempty"`
	Type       string `json:"type"`
	ModifiedMs int64  `json:"lastModified"`
}

// DialogClosed reports the outcome of a native file/folder dialog.
type DialogClosed struct {
	Err      error
	Canceled bool
	Files    []FileInfo
}
