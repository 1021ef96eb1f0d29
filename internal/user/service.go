package user

import (
	"errors"
	"strconv"

	"github.com/mathrivals/ArenaServer/internal/apperrors"
)

type UserRepository interface {
	CreateUser(username, password string) (*User, error)
	ValidateUser(username, password string) (*User, error)
	GetUser(id uint) (*User, error)
	GetRating(userID uint, mode, operation string) (int, error)
	ApplyRatingDelta(userID uint, mode, operation string, delta int) error
	ListRatings(userID uint) ([]Rating, error)
}

// GormUserRepository is the production repository backed by pkg/db.
type GormUserRepository struct{}

func (GormUserRepository) CreateUser(username, password string) (*User, error) {
	return CreateUser(username, password)
}

func (GormUserRepository) ValidateUser(username, password string) (*User, error) {
	return ValidateUser(username, password)
}

func (GormUserRepository) GetUser(id uint) (*User, error) {
	return GetUser(id)
}

func (GormUserRepository) GetRating(userID uint, mode, operation string) (int, error) {
	return GetRating(userID, mode, operation)
}

func (GormUserRepository) ApplyRatingDelta(userID uint, mode, operation string, delta int) error {
	return ApplyRatingDelta(userID, mode, operation, delta)
}

func (GormUserRepository) ListRatings(userID uint) ([]Rating, error) {
	return ListRatings(userID)
}

type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (u *UserService) Signup(user User) (string, error) {
	userRetrieved, err := u.repo.CreateUser(user.Username, user.Password)
	if err != nil {
		return "", err
	}

	token, errJWT := GenerateJWT(userRetrieved.ID)
	if errJWT != nil {
		return "", apperrors.NewAppError(500, "error creating jwt token", errJWT)
	}
	return token, nil
}

func (u *UserService) Login(user User) (string, error) {
	userRetrieved, err := u.repo.ValidateUser(user.Username, user.Password)
	if err != nil {
		return "", errors.New("invalid credentials")
	}
	token, errJWT := GenerateJWT(userRetrieved.ID)
	if errJWT != nil {
		return "", apperrors.NewAppError(500, "error creating jwt token", errJWT)
	}
	return token, nil
}

func (u *UserService) GetRatings(userID uint) (*RatingResponse, error) {
	usr, err := u.repo.GetUser(userID)
	if err != nil {
		return nil, apperrors.NewAppError(404, "user not found", err)
	}

	ratings, err := u.repo.ListRatings(userID)
	if err != nil {
		return nil, err
	}

	return &RatingResponse{
		Username: usr.Username,
		Ratings:  ratings,
	}, nil
}

// ApplyMatchDelta persists one member's rating change after a finalized
// match. Member ids arrive as strings from the matchmaking core.
func (u *UserService) ApplyMatchDelta(memberID string, mode, operation string, delta int) error {
	id, err := strconv.Atoi(memberID)
	if err != nil {
		return apperrors.NewAppError(400, "Invalid member ID", err)
	}
	return u.repo.ApplyRatingDelta(uint(id), mode, operation, delta)
}
