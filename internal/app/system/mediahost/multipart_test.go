package mediahost_test

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/splereg/internal/app/system/mediahost"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromMultipart_KeepsOrder(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, f := range []struct{ name, content string }{
		{"b.pdf", "second-listed-first"},
		{"a.jpg", "first-listed-second"},
	} {
		w, err := mw.CreateFormFile("attachments", f.name)
		require.NoError(t, err)
		_, _ = w.Write([]byte(f.content))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/register", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))

	payloads, release, err := mediahost.FromMultipart(req.MultipartForm.File["attachments"])
	defer release()
	require.NoError(t, err)
	require.Len(t, payloads, 2)

	assert.Equal(t, "b.pdf", payloads[0].Name)
	assert.Equal(t, "a.jpg", payloads[1].Name)
	assert.Equal(t, "application/octet-stream", payloads[0].MIMEType)
	assert.Equal(t, int64(len("second-listed-first")), payloads[0].Size)

	got, err := io.ReadAll(payloads[1].Body)
	require.NoError(t, err)
	assert.Equal(t, "first-listed-second", string(got))
}

func TestFromMultipart_Empty(t *testing.T) {
	payloads, release, err := mediahost.FromMultipart(nil)
	defer release()
	require.NoError(t, err)
	assert.Empty(t, payloads)
}
