// Package migrations embeds el esquema SQL del store postgres.
package migrations

import "embed"

// FS contiene las migraciones *_up.sql / *_down.sql, aplicadas en orden
// ascendente por nombre.
//
//go:embed *.sql
var FS embed.FS
