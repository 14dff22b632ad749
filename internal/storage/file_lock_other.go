//go:build !unix

package storage

// lockFile is a no-op here; FileBackend falls back to its in-process mutex
// and is safe for a single process only.
func lockFile(string) (func(), error) {
	return func() {}, nil
}
