package service

import (
	"context"

	"github.com/Zahid-Ham/ConsultAI-Latest/internal/model"
	"github.com/Zahid-Ham/ConsultAI-Latest/internal/repo"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// DoctorService covers the doctor directory and the admin verification
// workflow. Doctors register unverified and stay out of the patient-facing
// directory until an admin approves them.
type DoctorService interface {
	ListVerified(ctx context.Context) ([]model.User, error)
	ListUnverified(ctx context.Context) ([]model.User, error)
	ListAll(ctx context.Context) ([]model.User, error)
	Verify(ctx context.Context, doctorID string) (*model.User, error)
	Stats(ctx context.Context) (*model.DoctorStats, error)
}

type doctorService struct {
	users  repo.UserRepository
	logger *zap.Logger
}

func NewDoctorService(users repo.UserRepository, logger *zap.Logger) DoctorService {
	return &doctorService{users: users, logger: logger}
}

func (s *doctorService) ListVerified(ctx context.Context) ([]model.User, error) {
	verified := true
	return s.users.FindDoctors(ctx, &verified)
}

func (s *doctorService) ListUnverified(ctx context.Context) ([]model.User, error) {
	verified := false
	return s.users.FindDoctors(ctx, &verified)
}

func (s *doctorService) ListAll(ctx context.Context) ([]model.User, error) {
	return s.users.FindDoctors(ctx, nil)
}

// Verify approves a pending doctor. Approving an already-verified doctor is
// not an error so the admin UI can safely retry.
func (s *doctorService) Verify(ctx context.Context, doctorID string) (*model.User, error) {
	doctor, err := s.users.FindByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if doctor == nil || doctor.Role != model.RoleDoctor {
		return nil, ErrDoctorNotFound
	}
	if doctor.IsVerified {
		return doctor, nil
	}

	if err := s.users.UpdateByID(ctx, doctorID, bson.M{"is_verified": true}); err != nil {
		return nil, err
	}
	doctor.IsVerified = true

	s.logger.Info("doctor verified",
		zap.String("doctor_id", doctorID),
		zap.String("name", doctor.Name),
	)
	return doctor, nil
}

func (s *doctorService) Stats(ctx context.Context) (*model.DoctorStats, error) {
	all, err := s.users.FindDoctors(ctx, nil)
	if err != nil {
		return nil, err
	}

	verified := Filter(all, func(u model.User) bool { return u.IsVerified })
	return &model.DoctorStats{
		Total:      len(all),
		Verified:   len(verified),
		Unverified: len(all) - len(verified),
	}, nil
}
