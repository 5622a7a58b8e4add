package scroll

import (
	"net/http"
	"strconv"
	"strings"
)

const (
	// CookieName is the cookie the page script and Memory share.
	CookieName = "page_scroll"

	// Separator joins the two offsets inside the cookie value.
	Separator = "_"
)

// Position is a scroll offset in CSS pixels from the top-left of the page.
type Position struct {
	X int
	Y int
}

// FormatPosition encodes p as "x_y".
func FormatPosition(p Position) string {
	return strconv.Itoa(p.X) + Separator + strconv.Itoa(p.Y)
}

// ParsePosition decodes a "x_y" value. Anything that is not exactly two
// non-negative base-10 integers is reported as no position.
func ParsePosition(value string) (Position, bool) {
	fields := strings.Split(value, Separator)
	if len(fields) != 2 {
		return Position{}, false
	}
	x, err := strconv.Atoi(fields[0])
	if err != nil || x < 0 {
		return Position{}, false
	}
	y, err := strconv.Atoi(fields[1])
	if err != nil || y < 0 {
		return Position{}, false
	}
	return Position{X: x, Y: y}, true
}

// PositionFromRequest reads the saved position from the cookie a browser
// sent along with r.
func PositionFromRequest(r *http.Request) (Position, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return Position{}, false
	}
	return ParsePosition(Unescape(c.Value))
}
