package server

import (
	"context"
	"database/sql"

	"github.com/WorldObservationLog/NeuroTools/export"
	"github.com/WorldObservationLog/NeuroTools/vod"
)

// Scanner is the pipeline the scan endpoint drives.
type Scanner interface {
	Scan(ctx context.Context, req vod.ScanRequest) (*vod.ScanResult, error)
}

// Deps are the collaborators of the HTTP API. DB and Exports may be nil
// when Postgres is not configured.
type Deps struct {
	Scanner Scanner
	Exports export.Reader
	DB      *sql.DB
}

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	scanner Scanner
	exports export.Reader
	db      *sql.DB
}

// NewHandlers creates a new Handlers instance with the given dependencies.
func NewHandlers(deps Deps) *Handlers {
	return &Handlers{scanner: deps.Scanner, exports: deps.Exports, db: deps.DB}
}
