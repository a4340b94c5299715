package internal

import (
	"context"
	"io"
)

// Repository stores rendered artifacts (translated catalogs, archive
// snapshots) under slash separated keys.
type Repository interface {
	Write(ctx context.Context, key string, reader io.Reader) error
}
