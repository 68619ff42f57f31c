// Package parser extracts front matter and the fields the indexer needs from Markdown content.
package parser

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	yamlDelim = "---"
	tomlDelim = "+++"
)

// dateLayouts are the textual date forms accepted in front matter.
// Jekyll writes "2006-01-02 15:04:05 -0700"; the rest cover hand-written files.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05 -07:00",
	"2006-01-02 15:04:05 MST",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter    map[string]interface{}
	Body           string
	HasFrontMatter bool

	Title       *string
	Date        *time.Time
	Description *string
	Permalink   string
	Published   bool

	// Warnings lists recoverable problems such as an unreadable date.
	Warnings []string
}

// Parse extracts front matter and body from raw Markdown bytes.
// Dates without a zone are read as UTC.
func Parse(data []byte) (*Result, error) {
	return ParseInLocation(data, time.UTC)
}

// ParseInLocation is like Parse but reads zone-less dates in loc.
func ParseInLocation(data []byte, loc *time.Location) (*Result, error) {
	if loc == nil {
		loc = time.UTC
	}
	fm, body, found, fmErr := splitFrontmatter(data)

	res := &Result{
		Frontmatter:    fm,
		Body:           body,
		HasFrontMatter: found,
		Published:      true,
	}
	if fmErr != nil {
		res.Warnings = append(res.Warnings, fmErr.Error())
	}
	if len(fm) == 0 {
		return res, nil
	}

	res.Title = stringField(fm, "title")
	res.Description = stringField(fm, "description")
	if p := stringField(fm, "permalink"); p != nil {
		res.Permalink = strings.TrimSpace(*p)
	}
	if v, ok := fm["published"].(bool); ok {
		res.Published = v
	}
	if raw, ok := fm["date"]; ok && raw != nil {
		d, err := parseDate(raw, loc)
		if err != nil {
			res.Warnings = append(res.Warnings, err.Error())
		} else {
			res.Date = &d
		}
	}
	return res, nil
}

// splitFrontmatter separates YAML (---) or TOML (+++) front matter from the
// Markdown body. If no front matter is found the entire content is body.
// An empty block ("---\n---") still counts as front matter. A block that does
// not decode yields an empty map together with the decode error.
func splitFrontmatter(data []byte) (map[string]interface{}, string, bool, error) {
	trimmed := bytes.TrimLeft(data, "\n\r")
	// Strip a UTF-8 byte order mark.
	trimmed = bytes.TrimPrefix(trimmed, []byte("\xef\xbb\xbf"))

	var delim string
	switch {
	case bytes.HasPrefix(trimmed, []byte(yamlDelim)):
		delim = yamlDelim
	case bytes.HasPrefix(trimmed, []byte(tomlDelim)):
		delim = tomlDelim
	default:
		return nil, string(data), false, nil
	}

	rest := trimmed[len(delim):]
	// The opening fence must be alone on its line.
	nl := bytes.IndexByte(rest, '\n')
	if nl < 0 || strings.TrimSpace(string(rest[:nl])) != "" {
		return nil, string(data), false, nil
	}
	rest = rest[nl:]

	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		// No closing delimiter, treat everything as body.
		return nil, string(data), false, nil
	}

	block := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), " \t")
	body = strings.TrimLeft(body, "\n\r")

	fm := map[string]interface{}{}
	if len(bytes.TrimSpace(block)) == 0 {
		return fm, body, true, nil
	}

	var err error
	if delim == yamlDelim {
		err = yaml.Unmarshal(block, &fm)
	} else {
		err = toml.Unmarshal(block, &fm)
	}
	if err != nil {
		return map[string]interface{}{}, body, true, fmt.Errorf("parser: front matter: %w", err)
	}
	if fm == nil {
		fm = map[string]interface{}{}
	}
	return fm, body, true, nil
}

// stringField returns a scalar front matter value as a string.
func stringField(fm map[string]interface{}, key string) *string {
	raw, ok := fm[key]
	if !ok || raw == nil {
		return nil
	}
	var s string
	switch v := raw.(type) {
	case string:
		s = v
	case int, int64, uint64, float64, bool:
		s = fmt.Sprint(v)
	default:
		return nil
	}
	return &s
}

// parseDate converts a decoded front matter date into a time.Time.
func parseDate(raw interface{}, loc *time.Location) (time.Time, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case toml.LocalDate:
		return v.AsTime(loc), nil
	case toml.LocalDateTime:
		return v.AsTime(loc), nil
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range dateLayouts {
			if t, err := time.ParseInLocation(layout, s, loc); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("parser: unrecognised date %q", v)
	default:
		return time.Time{}, fmt.Errorf("parser: unsupported date type %T", raw)
	}
}
