package web

import (
	"embed"
	"io/fs"
)

// StaticFiles embeds the portfolio frontend build output (web/dist) into the
// binary so a single artifact serves both the API and the site.
//
//go:embed all:dist
var staticFS embed.FS

// FS returns the embedded filesystem rooted at the frontend build output.
func FS() (fs.FS, error) {
	return fs.Sub(staticFS, "dist")
}
