// Package mediahosttest provides an in-memory Uploader for tests.
package mediahosttest

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/dalemusser/splereg/internal/app/system/apperr"
	"github.com/dalemusser/splereg/internal/app/system/mediahost"
)

// Call is one recorded Upload.
type Call struct {
	Name   string
	Folder string
	Body   string
}

// Recorder records every upload and can be told to fail a named file.
type Recorder struct {
	mu     sync.Mutex
	calls  []Call
	failOn map[string]bool
}

// New returns an empty Recorder.
func New() *Recorder {
	return &Recorder{failOn: make(map[string]bool)}
}

// FailOn makes uploads of the named file return an upload failure.
func (r *Recorder) FailOn(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failOn[name] = true
}

// Upload implements mediahost.Uploader.
func (r *Recorder) Upload(ctx context.Context, p mediahost.Payload, folder string) (mediahost.Reference, error) {
	b, err := io.ReadAll(p.Body)
	if err != nil {
		return mediahost.Reference{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Name: p.Name, Folder: folder, Body: string(b)})
	if r.failOn[p.Name] {
		return mediahost.Reference{}, apperr.Upload("test upload", "Bad Request", fmt.Errorf("refused %s", p.Name))
	}

	n := len(r.calls)
	return mediahost.Reference{
		URL:      fmt.Sprintf("https://media.test/%s/%d/%s", folder, n, p.Name),
		PublicID: fmt.Sprintf("%s/%d", folder, n),
		Format:   "bin",
		Bytes:    int64(len(b)),
		Name:     p.Name,
		MIMEType: p.MIMEType,
	}, nil
}

// Calls returns a copy of the recorded uploads in call order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Names returns the uploaded file names in call order.
func (r *Recorder) Names() []string {
	calls := r.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Name
	}
	return out
}
