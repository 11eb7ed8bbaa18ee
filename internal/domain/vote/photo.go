package vote

import (
	"encoding/base64"
	"errors"
	"strings"
)

var (
	errPhotoMalformed = errors.New("photo must be a data URI: data:<mime>;base64,<body>")
	errPhotoEmpty     = errors.New("photo payload is empty")
	errPhotoTooLarge  = errors.New("photo payload exceeds the size limit")
)

// Photo is decoded evidence ready to be stored.
type Photo struct {
	ContentType string
	Extension   string
	Data        []byte
}

// DecodePhoto parses a data URI such as "data:image/png;base64,iVBOR...".
// The extension is the MIME subtype reduced to [a-z0-9]. maxSize <= 0 disables the limit.
func DecodePhoto(dataURI string, maxSize int64) (*Photo, error) {
	header, encoded, ok := strings.Cut(strings.TrimSpace(dataURI), ",")
	if !ok {
		return nil, errPhotoMalformed
	}

	header = strings.TrimPrefix(header, "data:")
	contentType, _, _ := strings.Cut(header, ";")
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	_, subtype, ok := strings.Cut(contentType, "/")
	if !ok {
		return nil, errPhotoMalformed
	}

	ext := sanitizeExtension(subtype)
	if ext == "" {
		return nil, errPhotoMalformed
	}

	if maxSize > 0 && int64(base64.StdEncoding.DecodedLen(len(encoded))) > maxSize+2 {
		return nil, errPhotoTooLarge
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errPhotoEmpty
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return nil, errPhotoTooLarge
	}

	return &Photo{
		ContentType: contentType,
		Extension:   ext,
		Data:        data,
	}, nil
}

func sanitizeExtension(subtype string) string {
	var b strings.Builder
	for _, r := range subtype {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
