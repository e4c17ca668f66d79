package imageedit

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/webp"

	"keywordpulse/pkg/validation"
)

// DefaultMIMEType is assumed for bare base64 payloads without a data-URI header.
const DefaultMIMEType = "image/png"

// DefaultMaxBytes caps uploads.
const DefaultMaxBytes = 10 << 20

var formatMIME = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
}

var mimeExt = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Asset is an image held as base64 text, addressable as a data URI.
type Asset struct {
	MIMEType string
	Data     string
}

func (a Asset) DataURI() string {
	return FormatDataURI(a.MIMEType, a.Data)
}

func (a Asset) IsZero() bool {
	return a.Data == ""
}

// Bytes decodes the base64 payload.
func (a Asset) Bytes() ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(a.Data)
	if err != nil {
		return nil, fmt.Errorf("decode image payload: %w", err)
	}
	return b, nil
}

// Extension is the file extension matching the asset's mime type, ".png" when unknown.
func (a Asset) Extension() string {
	if ext, ok := mimeExt[a.MIMEType]; ok {
		return ext
	}
	return ".png"
}

// FormatDataURI wraps base64 data into a data URI.
func FormatDataURI(mimeType, data string) string {
	if mimeType == "" {
		mimeType = DefaultMIMEType
	}
	return "data:" + mimeType + ";base64," + data
}

// ParseDataURI strips any data-URI header and returns the mime type and raw base64 text. A string
// without a header is taken as bare base64 of DefaultMIMEType.
func ParseDataURI(s string) (Asset, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Asset{}, &validation.ValidationError{Field: "image", Reason: "is required"}
	}
	if !strings.HasPrefix(s, "data:") {
		return Asset{MIMEType: DefaultMIMEType, Data: s}, nil
	}

	header, data, ok := strings.Cut(s, ",")
	if !ok || data == "" {
		return Asset{}, &validation.ValidationError{Field: "image", Reason: "data URI has no payload"}
	}
	meta := strings.TrimPrefix(header, "data:")
	params := strings.Split(meta, ";")
	mimeType := strings.ToLower(strings.TrimSpace(params[0]))
	if mimeType == "" {
		mimeType = DefaultMIMEType
	}
	base64Encoded := false
	for _, p := range params[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			base64Encoded = true
		}
	}
	if !base64Encoded {
		return Asset{}, &validation.ValidationError{Field: "image", Reason: "data URI must be base64 encoded"}
	}
	return Asset{MIMEType: mimeType, Data: data}, nil
}

// NewAsset validates raw upload bytes: size limit and a decodable PNG, JPEG, GIF or WebP header.
// The sniffed format decides the mime type.
func NewAsset(raw []byte, maxBytes int) (Asset, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if len(raw) == 0 {
		return Asset{}, &validation.ValidationError{Field: "image", Reason: "is empty"}
	}
	if len(raw) > maxBytes {
		return Asset{}, &validation.ValidationError{Field: "image", Reason: fmt.Sprintf("exceeds %d bytes", maxBytes)}
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return Asset{}, &validation.ValidationError{Field: "image", Reason: "is not a supported image (PNG, JPEG, GIF, WebP)"}
	}
	mimeType, ok := formatMIME[format]
	if !ok {
		return Asset{}, &validation.ValidationError{Field: "image", Reason: "format " + format + " is not supported"}
	}
	return Asset{MIMEType: mimeType, Data: base64.StdEncoding.EncodeToString(raw)}, nil
}

// NewAssetFromDataURI decodes and checks an uploaded data URI the same way as NewAsset.
func NewAssetFromDataURI(uri string, maxBytes int) (Asset, error) {
	a, err := ParseDataURI(uri)
	if err != nil {
		return Asset{}, err
	}
	raw, err := a.Bytes()
	if err != nil {
		return Asset{}, &validation.ValidationError{Field: "image", Reason: "payload is not valid base64"}
	}
	return NewAsset(raw, maxBytes)
}
