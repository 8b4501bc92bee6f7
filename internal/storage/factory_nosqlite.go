//go:build !sqlite

package storage

import "fmt"

// DefaultStoreKind is the memory journal unless built with the sqlite tag.
func DefaultStoreKind() string {
	return KindMemory
}

func newSQLiteStore(string) (Store, error) {
	return nil, fmt.Errorf("sqlite journal unavailable in this build; rebuild with -tags sqlite")
}
