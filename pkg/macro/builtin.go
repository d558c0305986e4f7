package macro

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/open-cli-collective/wikiconv/pkg/args"
	"github.com/open-cli-collective/wikiconv/pkg/dom"
)

// Output layouts of Date and DateTime.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
)

const invalidTime = "Invalid input parameter: None, float, int, or ISO 8601 formats are accepted."

// RegisterBuiltins adds the built-in macros to r.
func RegisterBuiltins(r *Registry) error {
	builtins := []struct {
		name string
		kind Kind
		h    Handler
	}{
		{"Date", Inline, HandlerFunc(dateMacro(DateLayout))},
		{"DateTime", Inline, HandlerFunc(dateMacro(DateTimeLayout))},
		{"Anchor", InlineOnly, HandlerFunc(anchor)},
		{"Verbatim", Inline, HandlerFunc(verbatim)},
		{"ItemList", Block, HandlerFunc(itemList)},
	}
	for _, b := range builtins {
		if err := r.Register(b.name, b.kind, b.h); err != nil {
			return err
		}
	}
	return nil
}

func dateMacro(layout string) func(Context, args.Arguments) ([]dom.Node, error) {
	return func(c Context, _ args.Arguments) ([]dom.Node, error) {
		t := c.now()
		if raw := strings.TrimSpace(c.Raw); raw != "" {
			var err error
			if t, err = ParseTime(raw); err != nil {
				return []dom.Node{FailMessage(invalidTime, c.Alt)}, nil
			}
		}
		return []dom.Node{dom.Text(t.UTC().Format(layout))}, nil
	}
}

var errTimeFormat = errors.New("unrecognized time")

// ParseTime accepts a unix timestamp or YYYY-MM-DDTHH:MM:SS with an optional
// Z or +HHMM/-HHMM suffix. A space may replace the T. A missing zone means UTC.
func ParseTime(s string) (time.Time, error) {
	if len(s) >= 19 && s[4] == '-' && s[7] == '-' && (s[10] == 'T' || s[10] == ' ') && s[13] == ':' && s[16] == ':' {
		base, err := time.Parse("2006-01-02T15:04:05", s[:10]+"T"+s[11:19])
		if err != nil {
			return time.Time{}, err
		}
		tz := s[19:]
		if tz == "" || tz == "Z" || tz == "z" {
			return base, nil
		}
		sign := 1
		switch {
		case strings.HasPrefix(tz, "+"):
			tz = tz[1:]
		case strings.HasPrefix(tz, "-"):
			sign, tz = -1, tz[1:]
		case strings.HasPrefix(tz, "−"):
			sign, tz = -1, strings.TrimPrefix(tz, "−")
		default:
			return time.Time{}, errTimeFormat
		}
		if len(tz) < 3 {
			return time.Time{}, errTimeFormat
		}
		h, err := strconv.Atoi(tz[:2])
		if err != nil {
			return time.Time{}, err
		}
		m, err := strconv.Atoi(tz[2:])
		if err != nil {
			return time.Time{}, err
		}
		offset := time.Duration(sign) * (time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
		return base.Add(-offset), nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return time.Time{}, errTimeFormat
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC(), nil
}

// anchor emits an empty span carrying the id given as first argument.
func anchor(c Context, a args.Arguments) ([]dom.Node, error) {
	if len(a.Positional) == 0 {
		return []dom.Node{FailMessage("Anchor macro needs a name", c.Alt)}, nil
	}
	span := dom.Elem("span")
	span.SetAttr(dom.AttrID, a.Positional[0])
	return []dom.Node{span}, nil
}

func verbatim(c Context, _ args.Arguments) ([]dom.Node, error) {
	return []dom.Node{dom.Text(c.Raw)}, nil
}
