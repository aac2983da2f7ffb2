package directive

import (
	"os"
	"path/filepath"
)

// Resolver turns an include argument into file content. Resolution happens
// on every include execution, so an include inside a loop body is re-read
// once per iteration.
type Resolver interface {
	Resolve(name string) ([]byte, error)
}

// DirResolver resolves include names relative to a base directory.
type DirResolver string

// Resolve reads the named file from the resolver's base directory.
func (d DirResolver) Resolve(name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(string(d), name))
}
