package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/lightforgemedia/go-pagesync/assets"
	"github.com/lightforgemedia/go-pagesync/internal/testutil"
	"github.com/lightforgemedia/go-pagesync/pkg/livereload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scriptTag = `<script src="/` + assets.ScriptName + `"></script>`

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		full := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0644))
	}
}

func newTestServer(t *testing.T, files map[string]string, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	root := t.TempDir()
	writeFiles(t, root, files)

	s, err := New(append([]Option{WithLogger(testutil.DiscardLogger), WithRoot(root)}, opts...)...)
	require.NoError(t, err, "Failed to create server")
	ts := httptest.NewServer(s)
	t.Cleanup(func() {
		s.Hub().Close()
		ts.Close()
	})
	return s, ts
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestSpecialPaths(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, body := get(t, ts.URL+"/robots.txt")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "User-agent: *\nDisallow: /", body)

	resp, _ = get(t, ts.URL+"/favicon.ico")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = get(t, ts.URL+"/sitemap.xml")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = get(t, ts.URL+"/"+assets.ScriptName)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/javascript", resp.Header.Get("Content-Type"))
	assert.Contains(t, body, "page_scroll")

	resp, body = get(t, ts.URL+"/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "pagesync_reloads_total")
}

func TestMetricsCanBeDisabled(t *testing.T) {
	_, ts := newTestServer(t, nil, WithMetrics(false))

	resp, _ := get(t, ts.URL+"/metrics")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServesIndexWithScript(t *testing.T) {
	_, ts := newTestServer(t, map[string]string{
		"index.html": "<html><body><p>home</p></body></html>",
	})

	resp, body := get(t, ts.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, "<html><body><p>home</p>"+scriptTag+"</body></html>", body)
}

func TestCustomIndex(t *testing.T) {
	_, ts := newTestServer(t, map[string]string{
		"home.html": "<body>custom</body>",
	}, WithIndex("home.html"))

	_, body := get(t, ts.URL+"/")
	assert.Equal(t, "<body>custom"+scriptTag+"</body>", body)
}

func TestDirectoryFallsBackToIndex(t *testing.T) {
	_, ts := newTestServer(t, map[string]string{
		"docs/index.html": "<body>docs</body>",
	})

	resp, body := get(t, ts.URL+"/docs")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "<body>docs"+scriptTag+"</body>", body)

	_, body = get(t, ts.URL+"/docs/")
	assert.Contains(t, body, "docs")
}

func TestMissingFile(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, body := get(t, ts.URL+"/nope.html")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "could not find file")
}

func TestPathsStayInsideRoot(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "site")
	writeFiles(t, parent, map[string]string{"secret.txt": "hidden"})
	writeFiles(t, root, map[string]string{"index.html": "<body>ok</body>"})

	s, err := New(WithLogger(testutil.DiscardLogger), WithRoot(root))
	require.NoError(t, err)
	defer s.Hub().Close()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.URL.Path = "/../secret.txt"
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotContains(t, rec.Body.String(), "hidden")
}

func TestContentTypes(t *testing.T) {
	_, ts := newTestServer(t, map[string]string{
		"app.js":     "console.log('</body>')",
		"style.css":  "body { color: red }",
		"notes.md":   "# Notes",
		"data.json":  `{"a":1}`,
		"plain.html": "<body>{{ \"x\" }}</body>",
	})

	tests := []struct {
		path        string
		contentType string
		body        string
	}{
		{"/app.js", "text/javascript; charset=utf-8", "console.log('</body>')"},
		{"/style.css", "text/css; charset=utf-8", "body { color: red }"},
		{"/notes.md", "text/plain; charset=utf-8", "# Notes"},
		{"/data.json", "application/json", `{"a":1}`},
		{"/plain.html", "text/html; charset=utf-8", "<body>x" + scriptTag + "</body>"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, body := get(t, ts.URL+tt.path)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.contentType, resp.Header.Get("Content-Type"))
			assert.Equal(t, tt.body, body)
		})
	}
}

func TestTemplateMarkdownToHTML(t *testing.T) {
	_, ts := newTestServer(t, map[string]string{
		"index.html": `<body>{{ MarkdownToHTML "README.md" }}</body>`,
		"README.md":  "# Title\n\n- [x] done\n\n<script>alert(1)</script>",
	})

	_, body := get(t, ts.URL+"/")
	assert.Contains(t, body, `<h1 id="title">Title</h1>`)
	assert.Contains(t, body, `type="checkbox"`)
	assert.NotContains(t, body, "alert(1)")
	assert.True(t, strings.HasSuffix(body, scriptTag+"</body>"))
}

func TestBrokenTemplateServedAsIs(t *testing.T) {
	page := "<body>{{ broken </body>"
	_, ts := newTestServer(t, map[string]string{"index.html": page})

	resp, body := get(t, ts.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "<body>{{ broken "+scriptTag+"</body>", body)
}

func TestRenderMarkdownMode(t *testing.T) {
	_, ts := newTestServer(t, map[string]string{
		"README.md": "# Hello\n\n| a | b |\n|---|---|\n| 1 | 2 |\n",
		"page.html": "<body>page</body>",
	}, WithIndex("README.md"))

	resp, body := get(t, ts.URL+"/")
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, body, `<h1 id="hello">Hello</h1>`)
	assert.Contains(t, body, "<table>")
	assert.Contains(t, body, "max-width: 650px")
	assert.NotContains(t, body, "\nXX\n")
	assert.Contains(t, body, scriptTag+"</body>")

	_, body = get(t, ts.URL+"/page.html")
	assert.Equal(t, "<body>page"+scriptTag+"</body>", body)
}

func TestNewRejectsMissingRoot(t *testing.T) {
	_, err := New(WithLogger(testutil.DiscardLogger), WithRoot(filepath.Join(t.TempDir(), "missing")))
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	_, err = New(WithLogger(testutil.DiscardLogger), WithRoot(file))
	assert.Error(t, err)
}

func TestReloadChannel(t *testing.T) {
	s, ts := newTestServer(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + livereload.DefaultPath
	c, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer c.CloseNow()

	require.NoError(t, testutil.WaitFor(t, "page connected", 2*time.Second, func() bool {
		return s.Hub().Count() == 1
	}))
	require.True(t, s.Hub().Reload("test"))

	var p livereload.Payload
	require.NoError(t, wsjson.Read(ctx, c, &p))
	assert.Equal(t, livereload.CommandReload, p.Message)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"index.html": "<body>hi</body>"})
	s, err := New(WithLogger(testutil.DiscardLogger), WithRoot(root))
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	_, body := get(t, "http://"+ln.Addr().String()+"/")
	assert.Contains(t, body, "hi")

	cancel()
	assert.NoError(t, testutil.Receive(t, done, 6*time.Second))
	assert.False(t, s.Hub().Reload("after shutdown"))
}
