package mediahost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/dalemusser/splereg/internal/app/system/apperr"
	"go.uber.org/zap"
)

// DefaultCloudinaryBaseURL is the public upload API root.
const DefaultCloudinaryBaseURL = "https://api.cloudinary.com/v1_1"

// CloudinaryConfig holds the deployment constants for unsigned uploads.
type CloudinaryConfig struct {
	CloudName    string
	UploadPreset string
	BaseURL      string       // blank means DefaultCloudinaryBaseURL
	HTTPClient   *http.Client // blank means a client with a 2 minute timeout
}

// Cloudinary uploads through the unsigned "auto" upload endpoint.
type Cloudinary struct {
	endpoint string
	preset   string
	client   *http.Client
	log      *zap.Logger
}

// NewCloudinary builds a Cloudinary uploader.
func NewCloudinary(cfg CloudinaryConfig, logger *zap.Logger) (*Cloudinary, error) {
	if cfg.CloudName == "" {
		return nil, fmt.Errorf("cloudinary: cloud name is empty")
	}
	if cfg.UploadPreset == "" {
		return nil, fmt.Errorf("cloudinary: upload preset is empty")
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultCloudinaryBaseURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	return &Cloudinary{
		endpoint: fmt.Sprintf("%s/%s/auto/upload", base, cfg.CloudName),
		preset:   cfg.UploadPreset,
		client:   client,
		log:      logger,
	}, nil
}

type cloudinaryResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Format    string `json:"format"`
	Bytes     int64  `json:"bytes"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Upload posts the payload as multipart form data.
func (c *Cloudinary) Upload(ctx context.Context, p Payload, folder string) (Reference, error) {
	body, contentType, err := c.encode(p, folder)
	if err != nil {
		return Reference{}, apperr.Upload("cloudinary upload", "could not read file", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return Reference{}, apperr.Upload("cloudinary upload", "bad request", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		return Reference{}, apperr.Upload("cloudinary upload", "network error", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		status := http.StatusText(resp.StatusCode)
		var detail cloudinaryResponse
		if json.Unmarshal(raw, &detail) == nil && detail.Error != nil && detail.Error.Message != "" {
			err = fmt.Errorf("cloudinary upload failed: %s: %s", status, detail.Error.Message)
		} else {
			err = fmt.Errorf("cloudinary upload failed: %s", status)
		}
		c.log.Warn("cloudinary upload rejected",
			zap.String("file", p.Name),
			zap.String("folder", folder),
			zap.Int("status", resp.StatusCode))
		return Reference{}, apperr.Upload("cloudinary upload", status, err)
	}

	var out cloudinaryResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return Reference{}, apperr.Upload("cloudinary upload", "unreadable response", err)
	}
	if out.SecureURL == "" || out.PublicID == "" {
		return Reference{}, apperr.Upload("cloudinary upload", "incomplete response", fmt.Errorf("missing secure_url or public_id"))
	}

	format := out.Format
	if format == "" {
		format = formatOf(p.Name)
	}
	size := out.Bytes
	if size == 0 {
		size = p.Size
	}

	c.log.Info("uploaded to cloudinary",
		zap.String("file", p.Name),
		zap.String("folder", folder),
		zap.String("public_id", out.PublicID),
		zap.Int64("bytes", size))

	return Reference{
		URL:      out.SecureURL,
		PublicID: out.PublicID,
		Format:   format,
		Bytes:    size,
		Name:     p.Name,
		MIMEType: p.MIMEType,
	}, nil
}

// encode buffers the multipart body so the request carries a length.
func (c *Cloudinary) encode(p Payload, folder string) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, p.Name))
	ct := p.MIMEType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)

	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, p.Body); err != nil {
		return nil, "", err
	}
	if err := mw.WriteField("upload_preset", c.preset); err != nil {
		return nil, "", err
	}
	if err := mw.WriteField("folder", folder); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}
