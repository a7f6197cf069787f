// Package mediahost transfers binary payloads to the remote media host
// and returns a durable reference to each stored object.
//
// Every Upload is exactly one transfer attempt. A successful call always
// creates a new remote object; nothing in this package deletes objects.
package mediahost

import (
	"context"
	"io"
	"path"
	"strings"
)

// Payload is one blob to transfer.
type Payload struct {
	Name     string
	MIMEType string
	Size     int64
	Body     io.Reader
}

// Reference describes a stored object. Name and MIMEType echo the
// payload so callers can build attachment entries from the reference
// alone.
type Reference struct {
	URL      string
	PublicID string
	Format   string
	Bytes    int64
	Name     string
	MIMEType string
}

// Uploader stores a payload under a logical folder.
type Uploader interface {
	Upload(ctx context.Context, p Payload, folder string) (Reference, error)
}

// formatOf returns the lowercase extension of name without the dot.
func formatOf(name string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
}
