package message

import (
	"bytes"
	"encoding/base64"
	"fmt"
)

// SaveType is the literal type tag carried by every save record.
const SaveType = "save"

// SaveMessage is a validated save record from the editor channel.
//
// Wire shape: {"type":"save","docJson":"<string>","previewBase64":"<base64>"}
type SaveMessage struct {
	Type          string `json:"type"`
	DocJSON       string `json:"docJson"`
	PreviewBase64 string `json:"previewBase64"`
}

// DocumentPayload is what the host application receives for one save
// event. DocJSON and PreviewBase64 always come from the same SaveMessage.
type DocumentPayload struct {
	ID            string `json:"id"`         // UUIDv7, assigned on receipt
	SessionID     string `json:"session_id"` // bridge session that produced it
	DocJSON       string `json:"doc_json"`   // opaque, host-defined schema
	PreviewBase64 string `json:"preview_base64"`
	ReceivedAt    int64  `json:"received_at"` // epoch milliseconds
}

// Payload builds the host-facing payload for this save.
func (m SaveMessage) Payload(id, sessionID string, receivedAt int64) DocumentPayload {
	return DocumentPayload{
		ID:            id,
		SessionID:     sessionID,
		DocJSON:       m.DocJSON,
		PreviewBase64: m.PreviewBase64,
		ReceivedAt:    receivedAt,
	}
}

// Preview decodes the base64 preview image.
func (p DocumentPayload) Preview() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(p.PreviewBase64)
	if err != nil {
		return nil, fmt.Errorf("message: decode preview: %w", err)
	}
	return data, nil
}

// PreviewFormat sniffs the decoded preview. An undecodable preview is
// FormatUnknown.
func (p DocumentPayload) PreviewFormat() ImageFormat {
	img, err := p.Preview()
	if err != nil {
		return FormatUnknown
	}
	return SniffImage(img)
}

// ImageFormat is a preview encoding recognised by its magic bytes.
type ImageFormat string

const (
	FormatPNG     ImageFormat = "png"
	FormatJPEG    ImageFormat = "jpeg"
	FormatWebP    ImageFormat = "webp"
	FormatUnknown ImageFormat = ""
)

var (
	pngMagic  = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	jpegMagic = []byte{0xff, 0xd8, 0xff}
)

// SniffImage returns the image format of data, or FormatUnknown.
func SniffImage(data []byte) ImageFormat {
	switch {
	case bytes.HasPrefix(data, pngMagic):
		return FormatPNG
	case bytes.HasPrefix(data, jpegMagic):
		return FormatJPEG
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return FormatWebP
	}
	return FormatUnknown
}

// Extension returns the file extension for f, "bin" when unknown.
func (f ImageFormat) Extension() string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatJPEG:
		return "jpg"
	case FormatWebP:
		return "webp"
	}
	return "bin"
}

// ContentType returns the MIME type for f.
func (f ImageFormat) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatJPEG:
		return "image/jpeg"
	case FormatWebP:
		return "image/webp"
	}
	return "application/octet-stream"
}
