package datalab

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
)

// VOSPath builds a vos:// URI from a directory name and optional file name.
func VOSPath(dir string, file ...string) string {
	p := "vos://" + strings.Trim(dir, "/")
	for _, f := range file {
		p += "/" + f
	}
	return p
}

// List returns the entries under a VOS directory. Names come back as the
// service reports them, one per element; callers should normalize to base
// names before comparing.
func List(ctx context.Context, c *Client, name string) ([]string, error) {
	params := url.Values{}
	params.Set("name", name)
	params.Set("format", "csv")
	body, err := c.getBody(ctx, c.storageURL, "/ls", params)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", name, err)
	}

	var names []string
	for _, part := range strings.FieldsFunc(body, func(r rune) bool { return r == ',' || r == '\n' }) {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	return names, nil
}

// Access reports whether a VOS path exists and is reachable.
func Access(ctx context.Context, c *Client, name string) bool {
	params := url.Values{}
	params.Set("name", name)
	body, err := c.getBody(ctx, c.storageURL, "/access", params)
	if err != nil {
		return false
	}
	return strings.EqualFold(body, "true")
}

// MkDir creates a VOS directory.
func MkDir(ctx context.Context, c *Client, name string) error {
	params := url.Values{}
	params.Set("name", name)
	if _, err := c.getBody(ctx, c.storageURL, "/mkdir", params); err != nil {
		return fmt.Errorf("mkdir %s: %w", name, err)
	}
	return nil
}

// Get downloads one VOS file to localPath. The download streams through a
// .part file renamed into place on success, so an interrupted transfer
// never leaves a truncated file that a later sync would skip as complete.
func Get(ctx context.Context, c *Client, name, localPath string) error {
	params := url.Values{}
	params.Set("name", name)
	resp, err := c.get(ctx, c.storageURL, "/get", params)
	if err != nil {
		return fmt.Errorf("get %s: %w", name, err)
	}
	defer resp.Body.Close()

	tmp := localPath + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("get %s: %w", name, err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("get %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("get %s: %w", name, err)
	}
	if err := os.Rename(tmp, localPath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("get %s: %w", name, err)
	}
	return nil
}
