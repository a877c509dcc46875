// Package upload decides which backend endpoint, if any, accepts a file.
package upload

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
)

type Kind int

const (
	Unsupported Kind = iota
	Document
	Media
)

func (k Kind) String() string {
	switch k {
	case Document:
		return "document"
	case Media:
		return "media"
	default:
		return "unsupported"
	}
}

var (
	ErrNoFile          = errors.New("Please select a file to upload!")
	ErrPDFOnly         = errors.New("Only PDF files are allowed!")
	ErrUnsupportedType = errors.New("Unsupported file type!")
)

const sniffLen = 512

// Classify maps a MIME type onto the endpoint family that stores it.
func Classify(contentType string) Kind {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(contentType))
	}
	switch {
	case mt == "application/pdf":
		return Document
	case strings.HasPrefix(mt, "image/"), strings.HasPrefix(mt, "video/"):
		return Media
	default:
		return Unsupported
	}
}

// File is an uploaded file with its effective content type resolved.
type File struct {
	Name        string
	ContentType string
	Content     io.Reader
}

// Inspect resolves the content type of r. The declared type wins unless it is
// empty or generic, in which case the first bytes are sniffed. The returned
// File replays the sniffed bytes.
func Inspect(name, declared string, r io.Reader) (File, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return File{}, err
	}
	head = head[:n]

	contentType := declared
	if isGeneric(declared) {
		contentType = http.DetectContentType(head)
	}
	return File{
		Name:        name,
		ContentType: contentType,
		Content:     io.MultiReader(strings.NewReader(string(head)), r),
	}, nil
}

// ForDocument accepts only PDFs, as the documentation upload does.
func ForDocument(f File) error {
	if Classify(f.ContentType) != Document {
		return ErrPDFOnly
	}
	return nil
}

// ForMedia routes images and videos to media, PDFs to documents, and rejects
// everything else.
func ForMedia(f File) (Kind, error) {
	k := Classify(f.ContentType)
	if k == Unsupported {
		return Unsupported, ErrUnsupportedType
	}
	return k, nil
}

// DisplayName returns title, or the file name when no title was given.
func DisplayName(title, fileName string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	return fileName
}

func isGeneric(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return true
	}
	return mt == "application/octet-stream"
}
