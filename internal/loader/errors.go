package loader

import "errors"

// Fatal stage errors. Each aborts the run.
var (
	ErrProvision     = errors.New("provisioning failed")
	ErrConnection    = errors.New("connection failed")
	ErrSchema        = errors.New("schema apply failed")
	ErrImportAborted = errors.New("import aborted")
	ErrSourceMissing = errors.New("source file not found")
)

// Row-level rejections, reported through *importer.RowError.
var (
	ErrOrphanReference = errors.New("references a missing row")
	ErrDuplicateKey    = errors.New("duplicate primary key")
	ErrNullKey         = errors.New("null primary key")
)
