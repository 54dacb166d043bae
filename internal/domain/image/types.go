package image

import (
	"encoding/base64"
	"strings"
)

// NormalizedImage is the JPEG produced for the model. It is owned by a single
// request and never persisted.
type NormalizedImage struct {
	Data         []byte
	Width        int
	Height       int
	SourceFormat string
	SourceWidth  int
	SourceHeight int
	// Digest is the hex SHA-256 of Data.
	Digest string
}

func (n *NormalizedImage) MIMEType() string { return "image/jpeg" }

// Base64 returns the standard base64 encoding of the JPEG bytes.
func (n *NormalizedImage) Base64() string {
	return base64.StdEncoding.EncodeToString(n.Data)
}

// DataURI renders the image as a data: URI for transports that take URLs.
func (n *NormalizedImage) DataURI() string {
	return "data:" + n.MIMEType() + ";base64," + n.Base64()
}

// ValidationResult captures the outcome of security validation.
type ValidationResult struct {
	IsValid      bool
	Format       string
	Width        int
	Height       int
	FileSize     int64
	Error        error
	SecurityRisk string
}

// Metrics aggregates pipeline statistics for observability.
type Metrics struct {
	TotalProcessed    int64 `json:"total_processed"`
	Normalized        int64 `json:"normalized"`
	Downscaled        int64 `json:"downscaled"`
	FailedValidations int64 `json:"failed_validations"`
	SecurityIncidents int64 `json:"security_incidents"`
	OversizedUploads  int64 `json:"oversized_uploads"`
}

var formatAliases = map[string]string{
	"jpg":      "jpeg",
	"pjpeg":    "jpeg",
	"tif":      "tiff",
	"x-ms-bmp": "bmp",
	"x-png":    "png",
}

// FormatFromMIME maps a declared content type such as "image/png" to the
// decoder format name ("png"). Non-image types yield "".
func FormatFromMIME(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	format, ok := strings.CutPrefix(ct, "image/")
	if !ok {
		return ""
	}
	return canonicalFormat(format)
}

func canonicalFormat(format string) string {
	format = strings.ToLower(format)
	if alias, ok := formatAliases[format]; ok {
		return alias
	}
	return format
}
