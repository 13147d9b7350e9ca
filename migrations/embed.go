// Package migrations embeds the portal's SQL schema files so the server
// binary can migrate without a checkout on disk.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
