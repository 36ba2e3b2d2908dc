package session

import (
	"embed"
)

//go:embed data/views
var viewsFS embed.FS

// GetViewsFS returns the console view templates for this package
func GetViewsFS() embed.FS {
	return viewsFS
}
