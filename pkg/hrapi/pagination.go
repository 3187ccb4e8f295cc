package hrapi

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/go-faster/errors"
)

var ErrPageLimitExceeded = errors.New("hr api page limit exceeded")

type page struct {
	Results []json.RawMessage `json:"results"`
	Next    *string           `json:"next"`
}

// GetAll walks page=1,2,... until the response carries no "next" link. A bare
// JSON array response is taken as the complete result set.
func (c *Client) GetAll(ctx context.Context, path string, query url.Values) ([]json.RawMessage, error) {
	var all []json.RawMessage
	for n := 1; ; n++ {
		if n > c.maxPages {
			return nil, errors.Wrapf(ErrPageLimitExceeded, "%s after %d pages", path, c.maxPages)
		}
		q := url.Values{}
		for k, v := range query {
			q[k] = append([]string(nil), v...)
		}
		q.Set("page", strconv.Itoa(n))
		q.Set("page_size", strconv.Itoa(c.pageSize))

		body, err := c.getRaw(ctx, path, q)
		if err != nil {
			return nil, err
		}
		if isJSONArray(body) {
			var items []json.RawMessage
			if err := json.Unmarshal(body, &items); err != nil {
				return nil, errors.Wrapf(err, "decode %s", path)
			}
			return append(all, items...), nil
		}

		var p page
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, errors.Wrapf(err, "decode %s page %d", path, n)
		}
		all = append(all, p.Results...)
		if p.Next == nil || *p.Next == "" {
			return all, nil
		}
	}
}

func getAllInto[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	raw, err := c.GetAll(ctx, path, query)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raw))
	for i, r := range raw {
		var v T
		if err := json.Unmarshal(r, &v); err != nil {
			return nil, errors.Wrapf(err, "decode %s item %d", path, i)
		}
		out = append(out, v)
	}
	return out, nil
}
