package storage

import "context"

// ReportArchiver keeps audit documents out of the primary database.
type ReportArchiver interface {
	// Archive stores report, JSON encoded, under key.
	Archive(ctx context.Context, key string, report interface{}) error
}
