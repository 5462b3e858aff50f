package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrNoFile          = errors.New("no file uploaded")
	ErrTooLarge        = errors.New("file is too large")
	ErrUnsupportedType = errors.New("only JPEG, PNG, GIF and WebP images are allowed")
	ErrNotConfigured   = errors.New("image hosting is not configured")
	ErrUpstream        = errors.New("image host request failed")
)

var allowedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// Image is an upload that passed validation.
type Image struct {
	Data     []byte
	Filename string
	MIME     string
}

type Uploaded struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}

type Uploader interface {
	Upload(ctx context.Context, img *Image) (*Uploaded, error)
	Delete(ctx context.Context, publicID string) error
}

// ReadImage reads at most maxSize bytes and checks the content type from the
// bytes themselves, not from the client's header.
func ReadImage(r io.Reader, filename string, maxSize int64) (*Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrNoFile
	}
	if int64(len(data)) > maxSize {
		return nil, ErrTooLarge
	}

	mt := mimetype.Detect(data)
	for _, allowed := range allowedTypes {
		if mt.Is(allowed) {
			return &Image{Data: data, Filename: filename, MIME: allowed}, nil
		}
	}
	return nil, ErrUnsupportedType
}

var unsafeChars = regexp.MustCompile(`[^\p{L}\p{N}_-]+`)

// PublicID names an upload "<unix millis>-<base name>".
func PublicID(filename string, now time.Time) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	base = strings.Trim(unsafeChars.ReplaceAllString(base, "_"), "_")
	if base == "" || base == "." {
		base = uuid.NewString()
	}
	return fmt.Sprintf("%d-%s", now.UnixMilli(), base)
}

// Disabled rejects every call; used when no media credentials are set.
type Disabled struct{}

func (Disabled) Upload(context.Context, *Image) (*Uploaded, error) { return nil, ErrNotConfigured }
func (Disabled) Delete(context.Context, string) error              { return ErrNotConfigured }
