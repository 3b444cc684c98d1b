package client

import (
	"context"
	"encoding/json"
	"fmt"
)

// DoJSON executes req through the pipeline and decodes the JSON response
// body into T. An empty body yields T's zero value.
func DoJSON[T any](ctx context.Context, c *Client, req Request) (T, error) {
	var out T
	resp, err := c.Do(ctx, req)
	if err != nil {
		return out, err
	}
	if len(resp.Body) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return out, fmt.Errorf("client: decode %s %s response: %w", req.Method, req.Path, err)
	}
	return out, nil
}
