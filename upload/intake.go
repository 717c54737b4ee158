package upload

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/tuanhandsomes/web-upload-image/models"
)

// Cause classifies why a dropped file was refused.
type Cause string

const (
	CauseTooLarge    Cause = "too-large"
	CauseInvalidType Cause = "invalid-type"
)

type Rejection struct {
	FileName string `json:"fileName"`
	Cause    Cause  `json:"cause"`
	Message  string `json:"message"`
}

var acceptedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

var acceptedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// RecordID derives the deduplication key of a dropped file.
func RecordID(f models.File) string {
	return fmt.Sprintf("%s-%d-%d", f.Name(), f.Size(), f.LastModified().UnixMilli())
}

// DefaultTitle is the file name without its extension.
func DefaultTitle(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// classify returns one rejection per cause that applies to f.
func classify(f models.File) []Rejection {
	var out []Rejection

	if f.Size() > models.MaxFileSize {
		out = append(out, Rejection{
			FileName: f.Name(),
			Cause:    CauseTooLarge,
			Message:  fmt.Sprintf("%s is larger than 5MB", f.Name()),
		})
	}

	if !acceptedExtensions[strings.ToLower(filepath.Ext(f.Name()))] || !acceptedTypes[sniff(f)] {
		out = append(out, Rejection{
			FileName: f.Name(),
			Cause:    CauseInvalidType,
			Message:  fmt.Sprintf("%s is not a JPEG, PNG or GIF image", f.Name()),
		})
	}

	return out
}

// sniff detects the content type from the leading bytes of f. It returns ""
// when the file cannot be read.
func sniff(f models.File) string {
	rc, err := f.Open()
	if err != nil {
		return ""
	}
	defer rc.Close()

	mt, err := mimetype.DetectReader(rc)
	if err != nil {
		return ""
	}
	return strings.SplitN(mt.String(), ";", 2)[0]
}
