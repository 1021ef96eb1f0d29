package user

import (
	"github.com/stretchr/testify/mock"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(username, password string) (*User, error) {
	args := m.Called(username, password)
	var u *User
	if args.Get(0) != nil {
		u = args.Get(0).(*User)
	}
	return u, args.Error(1)
}

func (m *MockUserRepository) ValidateUser(username, password string) (*User, error) {
	args := m.Called(username, password)
	var u *User
	if args.Get(0) != nil {
		u = args.Get(0).(*User)
	}
	return u, args.Error(1)
}

func (m *MockUserRepository) GetUser(id uint) (*User, error) {
	args := m.Called(id)
	var u *User
	if args.Get(0) != nil {
		u = args.Get(0).(*User)
	}
	return u, args.Error(1)
}

func (m *MockUserRepository) GetRating(userID uint, mode, operation string) (int, error) {
	args := m.Called(userID, mode, operation)
	return args.Int(0), args.Error(1)
}

func (m *MockUserRepository) ApplyRatingDelta(userID uint, mode, operation string, delta int) error {
	args := m.Called(userID, mode, operation, delta)
	return args.Error(0)
}

func (m *MockUserRepository) ListRatings(userID uint) ([]Rating, error) {
	args := m.Called(userID)
	var ratings []Rating
	if args.Get(0) != nil {
		ratings = args.Get(0).([]Rating)
	}
	return ratings, args.Error(1)
}
