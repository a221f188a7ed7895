// Package assets embeds the renderer's WGSL shaders.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed shaders
var shaders embed.FS

// Shaders returns the embedded shader directory. Stage files sit at the root as
// "<name>.<vert|frag|comp>.wgsl" and shared snippets under include/.
func Shaders() fs.FS {
	sub, err := fs.Sub(shaders, "shaders")
	if err != nil {
		panic(err)
	}
	return sub
}
