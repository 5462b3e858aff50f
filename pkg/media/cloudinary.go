package media

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"

	"github.com/example/maktabati/pkg/config"
)

type CloudinaryUploader struct {
	cld    *cloudinary.Cloudinary
	folder string
	logger *zap.Logger
	now    func() time.Time
}

func NewCloudinaryUploader(cfg config.MediaConfig, logger *zap.Logger) (*CloudinaryUploader, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("create cloudinary client: %w", err)
	}
	return &CloudinaryUploader{cld: cld, folder: cfg.Folder, logger: logger, now: time.Now}, nil
}

func (u *CloudinaryUploader) Upload(ctx context.Context, img *Image) (*Uploaded, error) {
	res, err := u.cld.Upload.Upload(ctx, bytes.NewReader(img.Data), uploader.UploadParams{
		PublicID:     PublicID(img.Filename, u.now()),
		Folder:       u.folder,
		ResourceType: "image",
	})
	if err != nil {
		u.logger.Error("Image upload failed", zap.String("filename", img.Filename), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if res.Error.Message != "" {
		u.logger.Error("Image host rejected upload", zap.String("filename", img.Filename), zap.String("reason", res.Error.Message))
		return nil, fmt.Errorf("%w: %s", ErrUpstream, res.Error.Message)
	}

	u.logger.Info("Image uploaded", zap.String("public_id", res.PublicID), zap.Int("bytes", len(img.Data)))
	return &Uploaded{URL: res.SecureURL, PublicID: res.PublicID}, nil
}

func (u *CloudinaryUploader) Delete(ctx context.Context, publicID string) error {
	res, err := u.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID, ResourceType: "image"})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("%w: %s", ErrUpstream, res.Error.Message)
	}
	// "not found" is a successful call for an id that is already gone
	if res.Result != "ok" && res.Result != "not found" {
		return fmt.Errorf("%w: destroy returned %q", ErrUpstream, res.Result)
	}
	return nil
}
