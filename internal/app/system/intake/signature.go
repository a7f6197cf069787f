package intake

import (
	"encoding/base64"
	"strings"

	"github.com/dalemusser/splereg/internal/app/system/apperr"
)

const pngDataPrefix = "data:image/png;base64,"

// DecodeSignature turns the canvas data URL posted by the form into PNG
// bytes. An empty field yields no bytes and no error; Validate rejects it.
func DecodeSignature(dataURL string) ([]byte, error) {
	dataURL = strings.TrimSpace(dataURL)
	if dataURL == "" {
		return nil, nil
	}
	if !strings.HasPrefix(dataURL, pngDataPrefix) {
		return nil, apperr.Validation("decode signature", "Signature must be a PNG image.")
	}
	b, err := base64.StdEncoding.DecodeString(dataURL[len(pngDataPrefix):])
	if err != nil {
		return nil, apperr.Validation("decode signature", "Signature could not be read. Please sign again.")
	}
	return b, nil
}
