// Package routewatch provides the embedded report templates.
package routewatch

import "embed"

// TemplateFS holds the report server's HTML templates.
//
//go:embed web/templates
var TemplateFS embed.FS
