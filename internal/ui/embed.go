// Package ui embeds the browser client.
package ui

import "embed"

// DistFS holds the built client under dist/.
//
//go:embed dist
var DistFS embed.FS
