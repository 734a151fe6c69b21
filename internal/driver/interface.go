package driver

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Statement is one query of a write transaction.
type Statement struct {
	Query  string
	Params map[string]interface{}
}

// GraphDriver abstracts the graph database holding the entity catalog so the
// catalog layer can be tested against a mock. ExecuteWrite runs all
// statements in a single transaction, so multi-node writes either land
// together or not at all.
type GraphDriver interface {
	ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error)
	ExecuteWrite(ctx context.Context, statements []Statement) error
	BuildIndices(ctx context.Context) error
	Close(ctx context.Context) error
}
