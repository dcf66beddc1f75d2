package domain

import (
	"sort"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var (
	collatorMu sync.Mutex
	collator   = collate.New(language.English, collate.IgnoreCase, collate.Numeric)
)

// CompareNames compares two display names case-insensitively and with
// numeric awareness ("db2" sorts before "db10"). All name ordering in the
// app goes through this one comparator.
func CompareNames(a, b string) int {
	collatorMu.Lock()
	defer collatorMu.Unlock()
	return collator.CompareString(a, b)
}

// SortConnections orders connections by name.
func SortConnections(conns []*Connection) {
	sort.SliceStable(conns, func(i, j int) bool {
		return CompareNames(conns[i].Name, conns[j].Name) < 0
	})
}

// SortDatabases orders databases by name.
func SortDatabases(dbs []*Database) {
	sort.SliceStable(dbs, func(i, j int) bool {
		return CompareNames(dbs[i].Name, dbs[j].Name) < 0
	})
}
