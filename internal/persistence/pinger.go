package persistence

import "context"

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

var (
	_ Pinger = (*Postgres)(nil)
	_ Pinger = (*SQLite)(nil)
	_ Pinger = (*Redis)(nil)
)
