// Package migrations holds the versioned SQL schema of the invoicing store.
// Files follow the golang-migrate naming scheme NNNNNN_name.{up,down}.sql.
package migrations

import "embed"

// FS contains every migration file, so binaries can migrate without a checkout of this directory.
//
//go:embed *.sql
var FS embed.FS
