package service

import (
	"context"

	"github.com/Zahid-Ham/ConsultAI-Latest/internal/model"
	"github.com/Zahid-Ham/ConsultAI-Latest/internal/repo"
	"github.com/Zahid-Ham/ConsultAI-Latest/pkg/blobstore"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ReportService manages a patient's medical report library: uploads into the
// blob store with a metadata record, owner-scoped listing and deletion.
type ReportService interface {
	Upload(ctx context.Context, patientID string, data []byte, filename, contentType string) (*model.Report, error)
	List(ctx context.Context, patientID string) ([]model.Report, error)
	Delete(ctx context.Context, reportID, requesterID string) error
	DownloadURL(ctx context.Context, reportID, requesterID string) (string, error)
	ListStoredFiles(ctx context.Context) ([]blobstore.FileInfo, error)
}

type reportService struct {
	reports repo.ReportRepository
	blobs   blobstore.Store
	logger  *zap.Logger
}

func NewReportService(reports repo.ReportRepository, blobs blobstore.Store, logger *zap.Logger) ReportService {
	return &reportService{reports: reports, blobs: blobs, logger: logger}
}

func (s *reportService) Upload(ctx context.Context, patientID string, data []byte, filename, contentType string) (*model.Report, error) {
	pid, err := primitive.ObjectIDFromHex(patientID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if len(data) == 0 {
		return nil, ErrInvalidContent
	}

	stored, err := s.blobs.Upload(ctx, data, filename)
	if err != nil {
		return nil, err
	}

	return s.reports.Insert(ctx, &model.Report{
		PatientID:   pid,
		Filename:    filename,
		FileURL:     stored.URL,
		BlobID:      stored.BlobID,
		ContentType: contentType,
	})
}

func (s *reportService) List(ctx context.Context, patientID string) ([]model.Report, error) {
	return s.reports.ListForPatient(ctx, patientID)
}

// Delete removes the metadata record and then the stored blob. The blob
// delete is best effort: the record is gone either way.
func (s *reportService) Delete(ctx context.Context, reportID, requesterID string) error {
	report, err := s.reports.FindByID(ctx, reportID)
	if err != nil {
		return err
	}
	if report == nil {
		return ErrReportNotFound
	}
	if report.PatientID.Hex() != requesterID {
		return ErrForbidden
	}

	if _, err := s.reports.DeleteByID(ctx, reportID); err != nil {
		return err
	}

	if report.BlobID != "" {
		if err := s.blobs.Delete(ctx, report.BlobID); err != nil {
			s.logger.Warn("failed to delete report blob",
				zap.String("blob_id", report.BlobID),
				zap.Error(err),
			)
		}
	}
	return nil
}

// DownloadURL returns an owner-scoped URL that downloads the report as an
// attachment instead of rendering inline.
func (s *reportService) DownloadURL(ctx context.Context, reportID, requesterID string) (string, error) {
	report, err := s.reports.FindByID(ctx, reportID)
	if err != nil {
		return "", err
	}
	if report == nil {
		return "", ErrReportNotFound
	}
	if report.PatientID.Hex() != requesterID {
		return "", ErrForbidden
	}
	return blobstore.AttachmentURL(report.FileURL), nil
}

// ListStoredFiles exposes the blob store inventory for the re-share picker.
func (s *reportService) ListStoredFiles(ctx context.Context) ([]blobstore.FileInfo, error) {
	return s.blobs.List(ctx)
}
