// Package domain defines the entities and business logic for the fitness API.
package domain

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// User is the canonical account record stored in PostgreSQL. Profile fields
// live on the same row; the API exposes them as a nested profile object.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	DateOfBirth  *time.Time
	Gender       *string
	HeightCm     *float64
	WeightKg     *float64
	Bio          string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Known gender codes accepted on profiles.
var genderCodes = map[string]struct{}{
	"M": {}, "F": {}, "O": {}, "N": {},
}

// Age derives the user's age in whole years from the date of birth.
func (u *User) Age(today time.Time) *int {
	if u.DateOfBirth == nil {
		return nil
	}
	dob := *u.DateOfBirth
	age := today.Year() - dob.Year()
	if today.Month() < dob.Month() || (today.Month() == dob.Month() && today.Day() < dob.Day()) {
		age--
	}
	return &age
}

// BMI derives body mass index from height and weight when both are set.
func (u *User) BMI() *float64 {
	if u.HeightCm == nil || u.WeightKg == nil || *u.HeightCm <= 0 {
		return nil
	}
	meters := *u.HeightCm / 100
	bmi := math.Round(*u.WeightKg/(meters*meters)*100) / 100
	return &bmi
}

// UserRepository captures account persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user User) error
	GetByID(ctx context.Context, userID string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, user User) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// UserService orchestrates registration, login and profile workflows.
type UserService struct {
	repo       UserRepository
	bcryptCost int
}

// NewUserService constructs a UserService.
func NewUserService(repo UserRepository, bcryptCost int) *UserService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{repo: repo, bcryptCost: bcryptCost}
}

// RegisterInput captures the registration payload from the API layer.
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
	FirstName       string
	LastName        string
	Profile         *ProfileInput
}

// ProfileInput carries optional profile fields on registration and updates.
type ProfileInput struct {
	DateOfBirth *time.Time
	Gender      *string
	HeightCm    *float64
	WeightKg    *float64
	Bio         *string
}

const minPasswordLength = 8

// Register validates the input, hashes the password and persists a new user.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*User, error) {
	verr := NewValidationError()

	username := strings.TrimSpace(input.Username)
	if username == "" {
		verr.Add("username", "This field is required.")
	}
	if input.Password == "" {
		verr.Add("password", "This field is required.")
	} else if len(input.Password) < minPasswordLength {
		verr.Add("password", "Password must be at least 8 characters long.")
	}
	if input.Password != input.PasswordConfirm {
		verr.Add("password", "Password fields didn't match.")
	}

	email := strings.TrimSpace(input.Email)
	if email != "" && !strings.Contains(email, "@") {
		verr.Add("email", "Enter a valid email address.")
	}

	if username != "" {
		taken, err := s.repo.UsernameExists(ctx, username)
		if err != nil {
			return nil, err
		}
		if taken {
			verr.Add("username", "A user with this username already exists.")
		}
	}
	if email != "" {
		taken, err := s.repo.EmailExists(ctx, email)
		if err != nil {
			return nil, err
		}
		if taken {
			verr.Add("email", "A user with this email already exists.")
		}
	}

	if err := validateProfile(verr, input.Profile); err != nil {
		return nil, err
	}
	if err := verr.ErrOrNil(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	applyProfile(&user, input.Profile)

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Authenticate verifies a username/password pair. Failures are reported with
// ErrInvalidCredentials regardless of whether the username exists.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// GetUser fetches a user by ID.
func (s *UserService) GetUser(ctx context.Context, userID string) (*User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// UpdateProfileInput captures a profile update. Nil fields are left unchanged.
type UpdateProfileInput struct {
	Email     *string
	FirstName *string
	LastName  *string
	Profile   *ProfileInput
}

// UpdateProfile applies a partial update to the user's account and profile.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	verr := NewValidationError()
	if input.Email != nil {
		email := strings.TrimSpace(*input.Email)
		if email != "" && !strings.Contains(email, "@") {
			verr.Add("email", "Enter a valid email address.")
		} else if email != user.Email {
			if email != "" {
				taken, err := s.repo.EmailExists(ctx, email)
				if err != nil {
					return nil, err
				}
				if taken {
					verr.Add("email", "A user with this email already exists.")
				}
			}
			user.Email = email
		}
	}
	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if err := validateProfile(verr, input.Profile); err != nil {
		return nil, err
	}
	if err := verr.ErrOrNil(); err != nil {
		return nil, err
	}

	applyProfile(user, input.Profile)
	user.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, *user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword verifies the old password and stores a hash of the new one.
func (s *UserService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword, newPasswordConfirm string) error {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	verr := NewValidationError()
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)) != nil {
		verr.Add("old_password", "Old password is incorrect.")
	}
	if len(newPassword) < minPasswordLength {
		verr.Add("new_password", "Password must be at least 8 characters long.")
	}
	if newPassword != newPasswordConfirm {
		verr.Add("new_password", "New password fields didn't match.")
	}
	if err := verr.ErrOrNil(); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, userID, string(hash))
}

func validateProfile(verr *ValidationError, profile *ProfileInput) error {
	if profile == nil {
		return nil
	}
	if profile.Gender != nil {
		if _, ok := genderCodes[*profile.Gender]; !ok {
			verr.Add("gender", "Gender must be one of M, F, O, N.")
		}
	}
	if profile.HeightCm != nil && *profile.HeightCm <= 0 {
		verr.Add("height", "Height must be greater than zero.")
	}
	if profile.WeightKg != nil && *profile.WeightKg <= 0 {
		verr.Add("weight", "Weight must be greater than zero.")
	}
	return nil
}

func applyProfile(user *User, profile *ProfileInput) {
	if profile == nil {
		return
	}
	if profile.DateOfBirth != nil {
		dob := truncateToDate(*profile.DateOfBirth)
		user.DateOfBirth = &dob
	}
	if profile.Gender != nil {
		user.Gender = profile.Gender
	}
	if profile.HeightCm != nil {
		user.HeightCm = profile.HeightCm
	}
	if profile.WeightKg != nil {
		user.WeightKg = profile.WeightKg
	}
	if profile.Bio != nil {
		user.Bio = *profile.Bio
	}
}
