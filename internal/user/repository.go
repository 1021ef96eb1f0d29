package user

import (
	"errors"

	"github.com/mathrivals/ArenaServer/internal/apperrors"
	"github.com/mathrivals/ArenaServer/internal/elo"
	"github.com/mathrivals/ArenaServer/pkg/db"
	"golang.org/x/crypto/bcrypt"
)

// DefaultRating is assigned the first time a (user, mode, operation) rating
// is read.
const DefaultRating = 1000

func CreateUser(username, password string) (*User, error) {
	var exists User
	result := db.DB.Where("username = ?", username).First(&exists)
	if result.Error == nil {
		return nil, errors.New("user already exists")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	if err != nil {
		return nil, err
	}
	newUser := User{
		Username: username,
		Password: string(hashed),
		Level:    1,
	}

	if err := db.DB.Create(&newUser).Error; err != nil {
		return nil, err
	}

	return &newUser, nil
}

func ValidateUser(username, password string) (*User, error) {
	var u User
	result := db.DB.Where("username = ?", username).First(&u)
	if result.Error != nil {
		return nil, result.Error
	}
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	if err != nil {
		return nil, err
	}

	return &u, nil
}

func GetUser(id uint) (*User, error) {
	var u User
	result := db.DB.Where("id = ?", id).First(&u)
	if result.Error != nil {
		return nil, result.Error
	}

	return &u, nil
}

func GetUserUsername(id uint) (string, error) {
	u, err := GetUser(id)
	if err != nil {
		return "", err
	}
	return u.Username, nil
}

// GetRating reads the rating for one (user, mode, operation) key, creating
// it at DefaultRating on first access.
func GetRating(userID uint, mode, operation string) (int, error) {
	rating := Rating{UserID: userID, Mode: mode, Operation: operation, Value: DefaultRating}
	result := db.DB.Where("user_id = ? AND mode = ? AND operation = ?", userID, mode, operation).
		FirstOrCreate(&rating)
	if result.Error != nil {
		return 0, apperrors.NewAppError(500, "Error loading rating", result.Error)
	}
	return rating.Value, nil
}

// ApplyRatingDelta adds delta to the stored rating, clamped to the elo
// bounds.
func ApplyRatingDelta(userID uint, mode, operation string, delta int) error {
	current, err := GetRating(userID, mode, operation)
	if err != nil {
		return err
	}
	updated := elo.Clamp(current + delta)
	result := db.DB.Model(&Rating{}).
		Where("user_id = ? AND mode = ? AND operation = ?", userID, mode, operation).
		Update("value", updated)
	if result.Error != nil {
		return apperrors.NewAppError(500, "Error updating rating", result.Error)
	}
	return nil
}

func ListRatings(userID uint) ([]Rating, error) {
	var ratings []Rating
	if err := db.DB.Where("user_id = ?", userID).Order("mode, operation").Find(&ratings).Error; err != nil {
		return nil, apperrors.NewAppError(500, "Error listing ratings", err)
	}
	return ratings, nil
}
