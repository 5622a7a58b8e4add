package scroll_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lightforgemedia/go-pagesync/pkg/scroll"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeViewport struct {
	x, y    int
	readErr error
	scrolls []scroll.Position
}

func (v *fakeViewport) ScrollOffset() (int, int, error) {
	if v.readErr != nil {
		return 0, 0, v.readErr
	}
	return v.x, v.y, nil
}

func (v *fakeViewport) ScrollTo(x, y int) error {
	v.scrolls = append(v.scrolls, scroll.Position{X: x, Y: y})
	v.x, v.y = x, y
	return nil
}

var fixedNow = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func TestEscapeMatchesBrowser(t *testing.T) {
	cases := map[string]string{
		"12_34":         "12_34",
		"a b":           "a%20b",
		"x;y=z":         "x%3By%3Dz",
		"@*_+-./":       "@*_+-./",
		"é":             "%E9",
		"€":             "%u20AC",
		"😀":             "%uD83D%uDE00",
		"100%":          "100%25",
		"":              "",
		"plain-ASCII.9": "plain-ASCII.9",
	}
	for in, want := range cases {
		assert.Equal(t, want, scroll.Escape(in), "escape(%q)", in)
		assert.Equal(t, in, scroll.Unescape(want), "unescape(%q)", want)
	}
}

func TestUnescapeKeepsMalformedSequences(t *testing.T) {
	assert.Equal(t, "%zz", scroll.Unescape("%zz"))
	assert.Equal(t, "50%", scroll.Unescape("50%"))
	assert.Equal(t, "%u12", scroll.Unescape("%u12"))
	assert.Equal(t, "a%", scroll.Unescape("a%"))
}

func TestEscapeRoundTripsInvalidUTF8(t *testing.T) {
	assert.Equal(t, "%uDCFF", scroll.Escape("\xff"))
	assert.Equal(t, "\xff", scroll.Unescape("%uDCFF"))

	for _, in := range []string{"\xff", "a\xc3", "ok\x80_1", "\xed\xb2\x80", "\uFFFD", "é\xe9€"} {
		assert.Equal(t, in, scroll.Unescape(scroll.Escape(in)), "round trip of %q", in)
	}
	assert.Equal(t, "\uFFFD", scroll.Unescape("%uD83D"), "lone high surrogate decodes as the replacement rune")
	assert.Equal(t, "x\xffy", scroll.Unescape("x\xff%79"), "raw invalid bytes in the input are kept")
}

func TestParsePosition(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		p, ok := scroll.ParsePosition("15_2048")
		require.True(t, ok)
		assert.Equal(t, scroll.Position{X: 15, Y: 2048}, p)
	})

	for _, value := range []string{"abc", "1_2_3", "", "_", "1_", "x_2", "1_y", "-1_4", "undefined_undefined"} {
		t.Run("rejects "+value, func(t *testing.T) {
			_, ok := scroll.ParsePosition(value)
			assert.False(t, ok)
		})
	}
}

func TestCookiePrimitives(t *testing.T) {
	jar := scroll.NewDocumentJar(clock)
	expires := fixedNow.Add(time.Hour)

	scroll.SetCookie(jar, "greeting", "hello world; bye", expires)
	scroll.SetCookie(jar, "other", "1", expires, scroll.WithPath("/"), scroll.WithSecure())

	v, ok := scroll.GetCookie(jar, "greeting")
	require.True(t, ok)
	assert.Equal(t, "hello world; bye", v)
	assert.Equal(t, "greeting=hello%20world%3B%20bye; other=1", jar.Cookie())

	_, ok = scroll.GetCookie(jar, "greet")
	assert.False(t, ok, "prefix of another name must not match")

	scroll.DeleteCookie(jar, "greeting")
	_, ok = scroll.GetCookie(jar, "greeting")
	assert.False(t, ok)
	assert.Equal(t, "other=1", jar.Cookie())
}

func TestDocumentJarExpiry(t *testing.T) {
	now := fixedNow
	jar := scroll.NewDocumentJar(func() time.Time { return now })

	scroll.SetCookie(jar, "short", "v", fixedNow.Add(time.Minute))
	assert.Equal(t, "short=v", jar.Cookie())

	now = fixedNow.Add(2 * time.Minute)
	assert.Equal(t, "", jar.Cookie())
}

func TestMemorySaveWritesCookie(t *testing.T) {
	jar := scroll.NewDocumentJar(clock)
	vp := &fakeViewport{x: 3, y: 950}
	m := scroll.New(vp, jar, scroll.WithClock(clock))

	m.Save()

	assert.Equal(t, "page_scroll=3_950", jar.Cookie())
	c, ok := jar.Attributes(scroll.CookieName)
	require.True(t, ok)
	assert.True(t, fixedNow.Add(365*24*time.Hour).Equal(c.Expires), "expires %v", c.Expires)
	assert.Empty(t, c.Path)
	assert.Empty(t, c.Domain)
	assert.False(t, c.Secure)
	assert.False(t, c.HttpOnly)
}

func TestMemoryRoundTrip(t *testing.T) {
	for _, p := range []scroll.Position{{0, 0}, {0, 1}, {640, 0}, {12, 99999}} {
		jar := scroll.NewDocumentJar(clock)
		before := &fakeViewport{x: p.X, y: p.Y}
		scroll.New(before, jar, scroll.WithClock(clock)).Save()

		after := &fakeViewport{}
		m := scroll.New(after, jar, scroll.WithClock(clock))
		require.True(t, m.Load())
		require.True(t, m.Load())
		assert.Equal(t, []scroll.Position{p, p}, after.scrolls)
	}
}

func TestMemoryLoadWithoutUsableCookie(t *testing.T) {
	for _, value := range []string{"", "abc", "1_2_3", "a_b"} {
		jar := scroll.NewDocumentJar(clock)
		if value != "" {
			scroll.SetCookie(jar, scroll.CookieName, value, fixedNow.Add(time.Hour))
		}
		vp := &fakeViewport{}
		m := scroll.New(vp, jar)

		assert.NotPanics(t, func() { assert.False(t, m.Load()) })
		assert.Empty(t, vp.scrolls, "value %q", value)
	}
}

func TestMemorySaveSkipsUnreadableOffset(t *testing.T) {
	jar := scroll.NewDocumentJar(clock)
	scroll.New(&fakeViewport{readErr: errors.New("no body")}, jar).Save()
	scroll.New(&fakeViewport{x: -5, y: 10}, jar).Save()
	assert.Empty(t, jar.Cookie())
}

func TestMemoryOptions(t *testing.T) {
	jar := scroll.NewDocumentJar(clock)
	m := scroll.New(&fakeViewport{x: 1, y: 2}, jar,
		scroll.WithCookieName("docs_scroll"),
		scroll.WithLifetime(time.Hour),
		scroll.WithClock(clock),
	)
	m.Save()

	c, ok := jar.Attributes("docs_scroll")
	require.True(t, ok)
	assert.True(t, fixedNow.Add(time.Hour).Equal(c.Expires), "expires %v", c.Expires)

	p, ok := m.Saved()
	require.True(t, ok)
	assert.Equal(t, scroll.Position{X: 1, Y: 2}, p)
}

func TestPositionFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := scroll.PositionFromRequest(r)
	assert.False(t, ok)

	r.Header.Set("Cookie", "theme=dark; page_scroll=40_700")
	p, ok := scroll.PositionFromRequest(r)
	require.True(t, ok)
	assert.Equal(t, scroll.Position{X: 40, Y: 700}, p)

	r.Header.Set("Cookie", "page_scroll="+strings.Repeat("9", 3))
	_, ok = scroll.PositionFromRequest(r)
	assert.False(t, ok)
}
