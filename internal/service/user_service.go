package service

import (
	"context"
	"errors"
	"time"

	"github.com/Zahid-Ham/ConsultAI-Latest/internal/middleware"
	"github.com/Zahid-Ham/ConsultAI-Latest/internal/model"
	"github.com/Zahid-Ham/ConsultAI-Latest/internal/repo"
	"github.com/Zahid-Ham/ConsultAI-Latest/pkg/blobstore"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 7 * 24 * time.Hour

// RegisterInput is the signup payload.
type RegisterInput struct {
	Name           string `json:"name" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required,min=6"`
	Role           string `json:"role" binding:"required,oneof=patient doctor"`
	Specialization string `json:"specialization"`
	Phone          string `json:"phone"`
	Age            int    `json:"age"`
	Sex            string `json:"sex"`
}

// ProfileUpdate carries the editable profile fields. Nil pointers leave the
// stored value untouched.
type ProfileUpdate struct {
	Name           *string `json:"name"`
	Phone          *string `json:"phone"`
	Age            *int    `json:"age"`
	Sex            *string `json:"sex"`
	Specialization *string `json:"specialization"`
}

// UserService handles accounts: registration, login, and profile management.
type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, string, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	GetProfile(ctx context.Context, userID string) (*model.User, error)
	UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*model.User, error)
	UpdateProfilePicture(ctx context.Context, userID string, data []byte, filename string) (*model.User, error)
}

type userService struct {
	users     repo.UserRepository
	blobs     blobstore.Store
	jwtSecret string
	logger    *zap.Logger
}

func NewUserService(users repo.UserRepository, blobs blobstore.Store, jwtSecret string, logger *zap.Logger) UserService {
	return &userService{
		users:     users,
		blobs:     blobs,
		jwtSecret: jwtSecret,
		logger:    logger,
	}
}

// Register creates an account and returns it with a signed token. Patients
// are active immediately; doctors start unverified and wait for admin
// approval before appearing in the directory.
func (s *userService) Register(ctx context.Context, in RegisterInput) (*model.User, string, error) {
	if in.Role == model.RoleDoctor && in.Specialization == "" {
		return nil, "", ErrSpecializationNeeded
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	user := &model.User{
		Name:           in.Name,
		Email:          in.Email,
		Password:       string(hash),
		Role:           in.Role,
		IsVerified:     in.Role == model.RolePatient,
		Specialization: in.Specialization,
		Phone:          in.Phone,
		Age:            in.Age,
		Sex:            in.Sex,
	}

	user, err = s.users.Insert(ctx, user)
	if errors.Is(err, repo.ErrDuplicateEmail) {
		return nil, "", ErrEmailTaken
	}
	if err != nil {
		return nil, "", err
	}

	token, err := middleware.SignToken(s.jwtSecret, user, tokenTTL)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("user registered",
		zap.String("user_id", user.ID.Hex()),
		zap.String("role", user.Role),
	)
	return user, token, nil
}

// Login checks credentials and returns the user with a fresh token. The
// same error covers unknown email and wrong password.
func (s *userService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := middleware.SignToken(s.jwtSecret, user, tokenTTL)
	if err != nil {
		return nil, "", err
	}

	if err := s.users.UpdateByID(ctx, user.ID.Hex(), bson.M{"last_active": time.Now().UTC()}); err != nil {
		s.logger.Warn("failed to record last activity", zap.Error(err))
	}

	return user, token, nil
}

func (s *userService) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*model.User, error) {
	set := bson.M{}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Phone != nil {
		set["phone"] = *update.Phone
	}
	if update.Age != nil {
		set["age"] = *update.Age
	}
	if update.Sex != nil {
		set["sex"] = *update.Sex
	}
	if update.Specialization != nil {
		set["specialization"] = *update.Specialization
	}
	if len(set) > 0 {
		if err := s.users.UpdateByID(ctx, userID, set); err != nil {
			return nil, err
		}
	}
	return s.GetProfile(ctx, userID)
}

// UpdateProfilePicture uploads the new avatar, points the profile at it, and
// then deletes the previous one. The old-blob delete is best effort.
func (s *userService) UpdateProfilePicture(ctx context.Context, userID string, data []byte, filename string) (*model.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	stored, err := s.blobs.Upload(ctx, data, filename)
	if err != nil {
		return nil, err
	}

	picture := model.ProfilePicture{PublicID: stored.BlobID, URL: stored.URL}
	if err := s.users.UpdateByID(ctx, userID, bson.M{"profile_picture": picture}); err != nil {
		return nil, err
	}

	if old := user.ProfilePicture.PublicID; old != "" && old != stored.BlobID {
		if err := s.blobs.Delete(ctx, old); err != nil {
			s.logger.Warn("failed to delete replaced profile picture",
				zap.String("blob_id", old),
				zap.Error(err),
			)
		}
	}

	user.ProfilePicture = picture
	return user, nil
}
