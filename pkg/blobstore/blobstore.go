// Package blobstore wraps the cloud file store behind a narrow interface so
// services stay testable without network access.
package blobstore

import "context"

// UploadResult describes a stored blob right after upload.
type UploadResult struct {
	URL      string `json:"url"`
	BlobID   string `json:"blobId"`
	Type     string `json:"type"`
	Filename string `json:"filename"`
}

// FileInfo describes an already-stored blob.
type FileInfo struct {
	BlobID   string `json:"publicId"`
	URL      string `json:"url"`
	Filename string `json:"originalFilename"`
	Format   string `json:"format"`
	Type     string `json:"resourceType"`
}

// Store is the blob-store collaborator. Upload returns a stable URL; Delete
// is best effort and callers log rather than fail on its errors.
type Store interface {
	Upload(ctx context.Context, data []byte, filename string) (*UploadResult, error)
	Delete(ctx context.Context, blobID string) error
	Resolve(ctx context.Context, blobID string) (*FileInfo, error)
	List(ctx context.Context) ([]FileInfo, error)
}
