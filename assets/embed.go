// Package assets holds the browser script and page shell served by the dev
// server.
package assets

import (
	"bytes"
	"embed"
	"fmt"
	"sync"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/js"
)

// ScriptName is the file name the page script is served under.
const ScriptName = "dpMCmkDohB.js"

// ContentPlaceholder marks where rendered markdown goes in the shell.
const ContentPlaceholder = "XX"

const mediaTypeJS = "application/javascript"

//go:embed dist
var files embed.FS

var (
	minifyOnce sync.Once
	minified   []byte
	minifyErr  error
)

// Script returns the page script, minified if asked.
func Script(compact bool) ([]byte, error) {
	src, err := files.ReadFile("dist/pagesync.js")
	if err != nil {
		return nil, err
	}
	if !compact {
		return src, nil
	}

	minifyOnce.Do(func() {
		m := minify.New()
		m.AddFunc(mediaTypeJS, js.Minify)
		minified, minifyErr = m.Bytes(mediaTypeJS, src)
		if minifyErr != nil {
			minifyErr = fmt.Errorf("minify page script: %w", minifyErr)
		}
	})
	return minified, minifyErr
}

// Shell returns the HTML page markdown is rendered into.
func Shell() []byte {
	b, err := files.ReadFile("dist/shell.html")
	if err != nil {
		panic(err)
	}
	return b
}

// RenderShell puts content in place of the first ContentPlaceholder.
func RenderShell(content []byte) []byte {
	return bytes.Replace(Shell(), []byte(ContentPlaceholder), content, 1)
}

// ScriptTag returns the tag that loads the page script.
func ScriptTag() []byte {
	return []byte(`<script src="/` + ScriptName + `"></script>`)
}

// InjectScript puts ScriptTag before the first </body>. Pages without one
// are returned unchanged.
func InjectScript(page []byte) []byte {
	return bytes.Replace(page, []byte("</body>"), append(ScriptTag(), "</body>"...), 1)
}
