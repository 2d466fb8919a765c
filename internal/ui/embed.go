package ui

import "embed"

// Dist embeds the compiled frontend from ui/dist/. The checked-in
// index.html is a placeholder; a frontend build replaces it.
//
//go:embed all:dist
var Dist embed.FS
