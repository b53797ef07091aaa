package static

import "embed"

// FS embeds the stylesheet into the binary so the server runs standalone.
//
//go:embed css
var FS embed.FS
