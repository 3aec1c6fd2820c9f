// Package appfs exposes the repo's embedded assets (DB migrations, email templates).
package appfs

import "embed"

//go:embed migrations assets
var FS embed.FS
