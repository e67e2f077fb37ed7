// Package template expands the destination templates declared on a Rule
// into concrete paths. The grammar is deliberately small (a fixed token
// vocabulary, backslash-escaping, balanced braces) so it is implemented
// directly against strings.Builder rather than pulling in a general
// templating engine, which would trade a handful of straightforward lines
// for an engine whose generality (loops, conditionals, arbitrary Go
// expressions) this grammar never uses.
package template

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Context carries the values a template token can expand to for one
// FolderHit.
type Context struct {
	Name   string
	Label  string
	Drive  string
	Parent string
	When   time.Time
}

// Expand substitutes every {token} in tmpl with its value from ctx.
// Unrecognized tokens are left as an error naming the offending token;
// a backslash immediately before '{' or '}' escapes that character,
// emitting it literally instead of starting or ending a token. A backslash
// directly before a complete, recognized token (as in `{yyyy}\{name}`) is
// kept as a path separator rather than treated as an escape.
func Expand(tmpl string, ctx Context) (string, error) {
	var out strings.Builder
	runes := []rune(tmpl)

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if r == '\\' && i+1 < len(runes) && runes[i+1] == '{' {
			if end := indexUnescaped(runes, i+2, '}'); end >= 0 {
				if _, err := ctx.resolve(string(runes[i+2 : end])); err == nil {
					out.WriteRune(r)
					continue
				}
			}
		}

		if r == '\\' && i+1 < len(runes) && (runes[i+1] == '{' || runes[i+1] == '}' || runes[i+1] == '\\') {
			out.WriteRune(runes[i+1])
			i++
			continue
		}

		if r != '{' {
			out.WriteRune(r)
			continue
		}

		end := indexUnescaped(runes, i+1, '}')
		if end < 0 {
			return "", errors.Errorf("unbalanced '{' at position %d in template %q", i, tmpl)
		}

		token := string(runes[i+1 : end])
		value, err := ctx.resolve(token)
		if err != nil {
			return "", err
		}
		out.WriteString(value)
		i = end
	}

	return out.String(), nil
}

// indexUnescaped finds the next occurrence of target at or after start
// that is not preceded by a backslash.
func indexUnescaped(runes []rune, start int, target rune) int {
	for i := start; i < len(runes); i++ {
		if runes[i] == target {
			return i
		}
		if runes[i] == '\\' {
			i++
		}
	}
	return -1
}

// resolve maps a single token name to its substitution value.
func (c Context) resolve(token string) (string, error) {
	switch token {
	case "name":
		return c.Name, nil
	case "label":
		return c.Label, nil
	case "drive":
		return c.Drive, nil
	case "parent":
		return c.Parent, nil
	case "yyyy":
		return fmt.Sprintf("%04d", c.When.Year()), nil
	case "yyyyMM":
		return fmt.Sprintf("%04d%02d", c.When.Year(), c.When.Month()), nil
	case "yyyyMMdd":
		return fmt.Sprintf("%04d%02d%02d", c.When.Year(), c.When.Month(), c.When.Day()), nil
	default:
		return "", errors.Errorf("unrecognized template token %q", token)
	}
}
