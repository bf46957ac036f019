package mimetypes

import (
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

type MIME string

const (
	Unknown     MIME = "unknown"
	OctetStream MIME = "application/octet-stream"

	ImagePNG  MIME = "image/png"
	ImageJPEG MIME = "image/jpeg"
	ImageGIF  MIME = "image/gif"
	ImageWEBP MIME = "image/webp"
)

func Matches(detected string, expected MIME) (MIME, bool) {
	mt, _, err := mime.ParseMediaType(detected)
	if err != nil {
		return Unknown, false
	}
	return expected, mt == string(expected)
}

// Resolve returns the declared media type stripped of its parameters, or the
// type sniffed from data when nothing usable was declared.
func Resolve(declared string, data []byte) MIME {
	if declared != "" {
		mt, _, err := mime.ParseMediaType(declared)
		if err != nil {
			return Unknown
		}
		return MIME(mt)
	}
	if len(data) == 0 {
		return Unknown
	}
	mt, _, err := mime.ParseMediaType(mimetype.Detect(data).String())
	if err != nil {
		return Unknown
	}
	return MIME(mt)
}

func (m MIME) IsImage() bool {
	return strings.HasPrefix(string(m), "image/")
}
