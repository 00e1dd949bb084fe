package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Zahid-Ham/ConsultAI-Latest/internal/db"
	"github.com/Zahid-Ham/ConsultAI-Latest/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrDuplicateEmail signals an insert clashing with the unique email index.
var ErrDuplicateEmail = errors.New("user with this email already exists")

type userRepository struct {
	mongoRepo *db.Repository[model.User]
}

// UserRepository reads and mutates user identity documents.
type UserRepository interface {
	EnsureIndexes(ctx context.Context) error
	Insert(ctx context.Context, u *model.User) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindManyByIDs(ctx context.Context, ids []primitive.ObjectID) ([]model.User, error)
	UpdateByID(ctx context.Context, id string, update bson.M) error
	FindDoctors(ctx context.Context, verified *bool) ([]model.User, error)
}

func NewUserRepository(repo *db.Repository[model.User]) UserRepository {
	return &userRepository{mongoRepo: repo}
}

func (r *userRepository) EnsureIndexes(ctx context.Context) error {
	return r.mongoRepo.EnsureUniqueIndex(ctx, "email")
}

func (r *userRepository) Insert(ctx context.Context, u *model.User) (*model.User, error) {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	u.LastActive = now

	id, err := r.mongoRepo.Create(ctx, *u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert user failed: %w", err)
	}

	u.ID = id
	return u, nil
}

// FindByEmail returns the user, or (nil, nil) when absent.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	u, err := r.mongoRepo.FindOne(ctx, db.NewFilter().Eq("email", email).Build())
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user by email failed: %w", err)
	}
	return u, nil
}

// FindByID returns the user, or (nil, nil) when absent.
func (r *userRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	u, err := r.mongoRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user failed: %w", err)
	}
	return u, nil
}

func (r *userRepository) FindManyByIDs(ctx context.Context, ids []primitive.ObjectID) ([]model.User, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	users, err := r.mongoRepo.FindAll(ctx, db.NewFilter().In("_id", ids).Build(), db.FindOptions{})
	if err != nil {
		return nil, fmt.Errorf("find users failed: %w", err)
	}
	return users, nil
}

func (r *userRepository) UpdateByID(ctx context.Context, id string, update bson.M) error {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	update["updated_at"] = time.Now().UTC()
	return r.mongoRepo.UpdateByID(ctx, id, update)
}

// FindDoctors lists doctor accounts. verified narrows by verification state;
// nil returns all doctors.
func (r *userRepository) FindDoctors(ctx context.Context, verified *bool) ([]model.User, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Eq("role", model.RoleDoctor)
	if verified != nil {
		filter.Eq("is_verified", *verified)
	}

	doctors, err := r.mongoRepo.FindAll(ctx, filter.Build(), db.FindOptions{SortBy: "created_at", SortDesc: true})
	if err != nil {
		return nil, fmt.Errorf("find doctors failed: %w", err)
	}
	return doctors, nil
}
