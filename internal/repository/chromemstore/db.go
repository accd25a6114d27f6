package chromemstore

import (
	"context"
	"errors"

	"github.com/philippgille/chromem-go"
)

const (
	SiteChunkCollection = "site_chunks"
	CourseCollection    = "courses"
)

var errNoEmbedder = errors.New("chromem collections here only accept precomputed embeddings")

// Open returns a persistent DB rooted at path, or an in-memory one when
// path is empty.
func Open(path string) (*chromem.DB, error) {
	if path == "" {
		return chromem.NewDB(), nil
	}
	return chromem.NewPersistentDB(path, false)
}

// precomputed refuses to embed. Every write and query supplies its own vector.
func precomputed(context.Context, string) ([]float32, error) {
	return nil, errNoEmbedder
}
