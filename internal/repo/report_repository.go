package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Zahid-Ham/ConsultAI-Latest/internal/db"
	"github.com/Zahid-Ham/ConsultAI-Latest/internal/model"
	"go.mongodb.org/mongo-driver/mongo"
)

type reportRepository struct {
	mongoRepo *db.Repository[model.Report]
}

// ReportRepository persists medical report metadata; the bytes live in the
// blob store.
type ReportRepository interface {
	Insert(ctx context.Context, rep *model.Report) (*model.Report, error)
	FindByID(ctx context.Context, id string) (*model.Report, error)
	ListForPatient(ctx context.Context, patientID string) ([]model.Report, error)
	DeleteByID(ctx context.Context, id string) (bool, error)
}

func NewReportRepository(repo *db.Repository[model.Report]) ReportRepository {
	return &reportRepository{mongoRepo: repo}
}

func (r *reportRepository) Insert(ctx context.Context, rep *model.Report) (*model.Report, error) {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	rep.CreatedAt = time.Now().UTC()
	id, err := r.mongoRepo.Create(ctx, *rep)
	if err != nil {
		return nil, fmt.Errorf("insert report failed: %w", err)
	}
	rep.ID = id
	return rep, nil
}

// FindByID returns the report, or (nil, nil) when absent.
func (r *reportRepository) FindByID(ctx context.Context, id string) (*model.Report, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	rep, err := r.mongoRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find report failed: %w", err)
	}
	return rep, nil
}

// ListForPatient returns a patient's reports, newest first.
func (r *reportRepository) ListForPatient(ctx context.Context, patientID string) ([]model.Report, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().ObjectID("patient_id", patientID).Build()
	reports, err := r.mongoRepo.FindAll(ctx, filter, db.FindOptions{SortBy: "created_at", SortDesc: true})
	if err != nil {
		return nil, fmt.Errorf("list reports failed: %w", err)
	}
	return reports, nil
}

func (r *reportRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	deleted, err := r.mongoRepo.DeleteByID(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete report failed: %w", err)
	}
	return deleted, nil
}
