package mediahost

import (
	"mime/multipart"
	"strings"
)

// FromMultipart opens each uploaded file as a Payload, keeping the order
// the browser sent them in. Parts without a file name are skipped. The
// returned release func closes every opened file and is safe to call
// after an error.
func FromMultipart(fhs []*multipart.FileHeader) ([]Payload, func(), error) {
	var opened []multipart.File
	release := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}

	out := make([]Payload, 0, len(fhs))
	for _, fh := range fhs {
		if fh == nil || strings.TrimSpace(fh.Filename) == "" {
			continue
		}
		f, err := fh.Open()
		if err != nil {
			return nil, release, err
		}
		opened = append(opened, f)

		mime := fh.Header.Get("Content-Type")
		if mime == "" {
			mime = "application/octet-stream"
		}
		out = append(out, Payload{
			Name:     fh.Filename,
			MIMEType: mime,
			Size:     fh.Size,
			Body:     f,
		})
	}
	return out, release, nil
}
