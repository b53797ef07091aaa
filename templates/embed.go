package templates

import "embed"

// FS embeds the page templates into the binary so the server runs without
// a templates directory next to it.
//
//go:embed *.html
var FS embed.FS
