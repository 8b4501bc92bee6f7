//go:build sqlite

package storage

const defaultSQLitePath = "imagelife.db"

func DefaultStoreKind() string {
	return KindSQLite
}

func newSQLiteStore(path string) (Store, error) {
	if path == "" {
		path = defaultSQLitePath
	}
	return NewSQLiteStore(path), nil
}
