package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// ScriptRunner runs server-side scripts; schema writes depend on it.
type ScriptRunner interface {
	EvalInts(ctx context.Context, script string, keys, args []string) ([]int64, error)
}
