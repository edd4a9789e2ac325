// Package embedded provides embedded static assets for the application.
package embedded

import (
	"embed"
)

// Files contains the built frontend (frontend/dist), served directly via HTTP.
//
// Note: a production build replaces frontend/dist with the Vite output before compiling.
//
//go:embed frontend/dist
var Files embed.FS
