// Package web holds the embedded listener page.
package web

import _ "embed"

// IndexHTML is served at /.
//
//go:embed index.html
var IndexHTML []byte
