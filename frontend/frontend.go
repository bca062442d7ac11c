package frontend

import "embed"

// StaticFiles holds the built UI served at /
//
//go:embed dist
var StaticFiles embed.FS
