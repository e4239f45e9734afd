// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package properties

import (
	"strings"

	"github.com/magiconair/properties"
)

func newLoader() *properties.Loader {
	return &properties.Loader{
		Encoding:         properties.UTF8,
		DisableExpansion: true,
	}
}

func parse(text string) (map[string]string, error) {
	p, err := newLoader().LoadBytes([]byte(text))
	if err != nil {
		return nil, err
	}
	return toMap(p), nil
}

// parseLenient parses every line on its own and skips the ones the
// parser rejects.
func parseLenient(lines []string) map[string]string {
	l := newLoader()
	m := make(map[string]string)
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isComment(trimmed) {
			continue
		}
		p, err := l.LoadBytes([]byte(line))
		if err != nil {
			continue
		}
		for k, v := range toMap(p) {
			m[k] = v
		}
	}
	return m
}

func toMap(p *properties.Properties) map[string]string {
	m := make(map[string]string, p.Len())
	for _, k := range p.Keys() {
		v, _ := p.Get(k)
		m[k] = v
	}
	return m
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

func isComment(trimmed string) bool {
	return strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "!")
}

func isHeader(trimmed string) bool {
	if !isComment(trimmed) {
		return false
	}
	return headerPattern.MatchString(trimmed) || strings.Contains(trimmed, headerMarker)
}

// splitKey returns the key of a key/value line, unescaped the same way
// the parser unescapes it. The key ends at the first '=', ':' or
// whitespace which isn't escaped with a backslash.
func splitKey(line string) (string, bool) {
	raw := rawKey(strings.TrimLeft(line, " \t\f"))
	if raw == "" {
		return "", false
	}

	p, err := newLoader().LoadBytes([]byte(raw + "="))
	if err != nil || p.Len() != 1 {
		return "", false
	}
	return p.Keys()[0], true
}

func rawKey(line string) string {
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\\':
			if i+1 == len(line) {
				return line[:i]
			}
			i++
		case ' ', '\t', '\f', '=', ':':
			return line[:i]
		}
	}
	return line
}

// continues reports whether a logical line carries on to the next line,
// i.e. it ends in an odd number of backslashes.
func continues(line string) bool {
	n := 0
	for i := len(line) - 1; i >= 0 && line[i] == '\\'; i-- {
		n++
	}
	return n%2 == 1
}

// escapeKey escapes every character that would otherwise end the key or,
// in first position, turn the line into a comment.
func escapeKey(k string) string {
	var sb strings.Builder
	for _, r := range k {
		switch r {
		case ' ', '=', ':', '#', '!', '\\':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\f':
			sb.WriteString(`\f`)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func escapeValue(v string) string {
	var sb strings.Builder
	leading := true
	for _, r := range v {
		if r != ' ' {
			leading = false
		}
		switch r {
		case ' ':
			if leading {
				sb.WriteString(`\ `)
				continue
			}
			sb.WriteRune(r)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\f':
			sb.WriteString(`\f`)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
