package thredds

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// ValueDecoder turns one raw value of an OPeNDAP ASCII response into the
// value stored in the index.
type ValueDecoder func(raw string) (any, error)

// Identity keeps the raw value.
func Identity(raw string) (any, error) { return raw, nil }

// ArrayRequest builds the OPeNDAP ASCII request for the first count values
// of variable.
func ArrayRequest(opendapBase, urlPath, variable string, count int) string {
	return fmt.Sprintf("%s%s.ascii?%s[0:1:%d]", opendapBase, urlPath, variable, count-1)
}

// ParseASCIIValues extracts the values from an OPeNDAP ASCII response: the
// last line, split on commas. A leading non-numeric token (the variable
// name on some servers) is dropped.
func ParseASCIIValues(data []byte) []string {
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	parts := strings.Split(lines[len(lines)-1], ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		values = append(values, strings.TrimSpace(p))
	}
	if _, err := strconv.ParseFloat(values[0], 64); err != nil {
		values = values[1:]
	}
	return values
}

// LoadArray fetches the first count values of variable for the dataset at
// urlPath through the active array service and decodes each with decode
// (Identity when nil).
func (c *Crawler) LoadArray(ctx context.Context, urlPath, variable string, count int, decode ValueDecoder) ([]any, error) {
	if decode == nil {
		decode = Identity
	}
	if count <= 0 {
		return []any{}, nil
	}

	uri := ArrayRequest(c.services.opendap, urlPath, variable, count)
	c.log.Debug("loading array", zap.String("url", uri))
	data, err := c.provider.Fetch(ctx, uri)
	if err != nil {
		return nil, err
	}

	raw := ParseASCIIValues(data)
	out := make([]any, 0, len(raw))
	for _, r := range raw {
		v, err := decode(r)
		if err != nil {
			return nil, fmt.Errorf("decode %s value %q: %w", variable, r, err)
		}
		out = append(out, v)
	}
	return out, nil
}
