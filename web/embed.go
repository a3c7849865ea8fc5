package web

import (
	"embed"
	"io/fs"
)

// distFS embeds the built single-page application.
//
//go:embed all:dist
var distFS embed.FS

// Dist returns the SPA bundle rooted at its index.html.
func Dist() (fs.FS, error) {
	return fs.Sub(distFS, "dist")
}
