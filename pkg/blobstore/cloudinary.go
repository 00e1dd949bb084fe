package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/admin"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Config holds Cloudinary credentials and the upload folder.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

type cloudinaryStore struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinary creates a Store backed by Cloudinary.
func NewCloudinary(cfg Config) (Store, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary init failed: %w", err)
	}
	return &cloudinaryStore{cld: cld, folder: cfg.Folder}, nil
}

func (s *cloudinaryStore) Upload(ctx context.Context, data []byte, filename string) (*UploadResult, error) {
	res, err := s.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		Folder:           s.folder,
		ResourceType:     "auto",
		FilenameOverride: filename,
		UseFilename:      api.Bool(true),
		UniqueFilename:   api.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("blob upload failed: %w", err)
	}

	name := res.OriginalFilename
	if name == "" {
		name = filename
	}

	return &UploadResult{
		URL:      res.SecureURL,
		BlobID:   res.PublicID,
		Type:     res.ResourceType,
		Filename: name,
	}, nil
}

func (s *cloudinaryStore) Delete(ctx context.Context, blobID string) error {
	res, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: blobID})
	if err != nil {
		return fmt.Errorf("blob delete failed: %w", err)
	}
	if res.Result != "ok" && res.Result != "not found" {
		return fmt.Errorf("blob delete failed: %s", res.Result)
	}
	return nil
}

func (s *cloudinaryStore) Resolve(ctx context.Context, blobID string) (*FileInfo, error) {
	res, err := s.cld.Admin.Asset(ctx, admin.AssetParams{PublicID: blobID})
	if err != nil {
		return nil, fmt.Errorf("blob lookup failed: %w", err)
	}
	return &FileInfo{
		BlobID:   res.PublicID,
		URL:      res.SecureURL,
		Filename: blobID,
		Format:   res.Format,
		Type:     res.ResourceType,
	}, nil
}

// AttachmentURL rewrites a delivery URL so the browser downloads the file
// instead of rendering it inline. URLs without an upload segment are
// returned unchanged.
func AttachmentURL(url string) string {
	const marker = "/upload/"
	if i := strings.Index(url, marker); i >= 0 {
		return url[:i+len(marker)] + "fl_attachment/" + url[i+len(marker):]
	}
	return url
}

// List returns stored images and raw documents for the re-share picker.
func (s *cloudinaryStore) List(ctx context.Context) ([]FileInfo, error) {
	var files []FileInfo

	for _, assetType := range []api.AssetType{api.Image, api.File} {
		res, err := s.cld.Admin.Assets(ctx, admin.AssetsParams{
			AssetType:  assetType,
			MaxResults: 50,
		})
		if err != nil {
			return nil, fmt.Errorf("blob list failed: %w", err)
		}
		for _, a := range res.Assets {
			files = append(files, FileInfo{
				BlobID:   a.PublicID,
				URL:      a.SecureURL,
				Filename: a.PublicID,
				Format:   a.Format,
				Type:     a.AssetType,
			})
		}
	}

	return files, nil
}
