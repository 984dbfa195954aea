// Package appfs embeds the non-Go assets the application needs at runtime:
// goose migrations and email templates.
package appfs

import "embed"

//go:embed migrations templates
var FS embed.FS
