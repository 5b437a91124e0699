package mintgarden

import (
	"context"

	"github.com/tidwall/gjson"
)

// fetchAllPages walks a cursor-paginated endpoint. build turns a cursor (empty
// on the first call) into a full URL; visit receives each page's items. The
// walk stops when a page comes back empty or without a next cursor. Pages
// after the first are separated by the configured inter-page delay.
func (c *Client) fetchAllPages(ctx context.Context, build func(cursor string) string, visit func(items []gjson.Result)) error {
	cursor := ""
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		body, err := c.getJSON(build(cursor))
		if err != nil {
			return err
		}

		page := gjson.Parse(body)
		items := page.Get("items").Array()
		if len(items) == 0 {
			return nil
		}
		visit(items)

		cursor = page.Get("next").String()
		if cursor == "" {
			return nil
		}
		c.sleep(c.cfg.InterPageDelay)
	}
}
