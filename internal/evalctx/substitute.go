package evalctx

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/vk/plugflow/internal/value"
)

// maxSubstitutionDepth bounds recursive expansion of variables whose values
// themselves contain references.
const maxSubstitutionDepth = 8

// Substitute expands ${name} and $name references to variable values and
// runs of '#' to the frame number zero-padded to the run length. A
// backslash escapes the following character. Missing variables expand to
// the empty string.
func (c *Context) Substitute(s string) (string, error) {
	return c.substitute(s, 0, nil)
}

// References returns the sorted names of the variables Substitute would
// consult for s, following references inside variable values.
func (c *Context) References(s string) ([]string, error) {
	seen := make(map[string]struct{})
	if _, err := c.substitute(s, 0, seen); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	slices.Sort(out)
	return out, nil
}

func (c *Context) substitute(s string, depth int, refs map[string]struct{}) (string, error) {
	if depth > maxSubstitutionDepth {
		return "", fmt.Errorf("substitution exceeded maximum depth of %d", maxSubstitutionDepth)
	}
	if !strings.ContainsAny(s, "$#\\") {
		return s, nil
	}

	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '\\':
			if i+1 < len(s) {
				i++
				sb.WriteByte(s[i])
			}
		case '#':
			j := i
			for j < len(s) && s[j] == '#' {
				j++
			}
			if refs != nil {
				refs[FrameName] = struct{}{}
			}
			frame := int64(math.Round(c.Frame()))
			sb.WriteString(padInt(frame, j-i))
			i = j - 1
		case '$':
			name, next := scanVariable(s, i+1)
			if name == "" {
				sb.WriteByte('$')
				continue
			}
			i = next - 1
			if refs != nil {
				refs[name] = struct{}{}
			}
			v, ok := c.Get(name)
			if !ok {
				continue
			}
			text := formatVariable(v)
			if strings.ContainsAny(text, "$#\\") {
				expanded, err := c.substitute(text, depth+1, refs)
				if err != nil {
					return "", err
				}
				text = expanded
			}
			sb.WriteString(text)
		default:
			sb.WriteByte(ch)
		}
	}
	return sb.String(), nil
}

// scanVariable parses a variable name starting at s[i], either braced or
// bare, returning the name and the index just past it.
func scanVariable(s string, i int) (string, int) {
	if i < len(s) && s[i] == '{' {
		end := strings.IndexByte(s[i+1:], '}')
		if end < 0 {
			return "", i
		}
		return s[i+1 : i+1+end], i + end + 2
	}
	j := i
	for j < len(s) && isNameByte(s[j]) {
		j++
	}
	return s[i:j], j
}

func isNameByte(b byte) bool {
	return b == '_' || b == ':' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func padInt(v int64, width int) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := strconv.FormatInt(v, 10)
	if len(s) < width {
		s = strings.Repeat("0", width-len(s)) + s
	}
	if neg {
		s = "-" + s
	}
	return s
}

func formatVariable(v value.Value) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case []string:
		return strings.Join(x, " ")
	}
	return fmt.Sprint(v)
}
