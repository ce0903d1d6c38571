package service

import (
	"context"
	"testing"
	"time"

	"github.com/busbooking/reservation-service/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// --- Mock UserRepository ---

type mockUserRepo struct {
	createFn      func(ctx context.Context, user *models.User) error
	findByIDFn    func(ctx context.Context, id uint) (*models.User, error)
	findByEmailFn func(ctx context.Context, email string) (*models.User, error)
	emailExistsFn func(ctx context.Context, email string) (bool, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	return m.createFn(ctx, user)
}
func (m *mockUserRepo) FindByID(ctx context.Context, id uint) (*models.User, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.findByEmailFn(ctx, email)
}
func (m *mockUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	return m.emailExistsFn(ctx, email)
}

const testSecret = "test-secret"

func TestRegister_Success(t *testing.T) {
	var created *models.User
	repo := &mockUserRepo{
		emailExistsFn: func(ctx context.Context, email string) (bool, error) { return false, nil },
		createFn: func(ctx context.Context, user *models.User) error {
			user.ID = 7
			created = user
			return nil
		},
	}

	svc := NewAuthService(repo, testSecret, time.Hour, bcrypt.MinCost)
	user, err := svc.Register(context.Background(), RegisterInput{
		Name:     "  Asha Rao  ",
		Email:    "Asha@Example.COM",
		Password: "correct-horse",
		Phone:    "5551234",
	})

	require.NoError(t, err)
	assert.Equal(t, uint(7), user.ID)
	assert.Equal(t, "Asha Rao", created.Name)
	assert.Equal(t, "asha@example.com", created.Email)
	assert.Equal(t, models.RoleUser, created.Role)
	assert.True(t, created.IsActive)

	// Stored hash, not the password itself.
	assert.NotEqual(t, "correct-horse", created.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("correct-horse")))
}

func TestRegister_EmailTaken(t *testing.T) {
	repo := &mockUserRepo{
		emailExistsFn: func(ctx context.Context, email string) (bool, error) { return true, nil },
	}

	svc := NewAuthService(repo, testSecret, time.Hour, bcrypt.MinCost)
	_, err := svc.Register(context.Background(), RegisterInput{
		Name: "A", Email: "a@b.com", Password: "password1",
	})

	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLogin_Success(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("password1"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*models.User, error) {
			assert.Equal(t, "asha@example.com", email)
			return &models.User{
				ID: 7, Email: email, PasswordHash: string(hash),
				Role: models.RoleUser, IsActive: true,
			}, nil
		},
	}

	svc := NewAuthService(repo, testSecret, time.Hour, bcrypt.MinCost)
	token, user, err := svc.Login(context.Background(), " Asha@Example.com ", "password1")

	require.NoError(t, err)
	assert.Equal(t, uint(7), user.ID)

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, float64(7), claims["sub"])
	assert.Equal(t, models.RoleUser, claims["role"])

	exp, err := claims.GetExpirationTime()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp.Time, time.Minute)
}

func TestLogin_WrongPassword(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password1"), bcrypt.MinCost)
	repo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*models.User, error) {
			return &models.User{ID: 7, PasswordHash: string(hash), IsActive: true}, nil
		},
	}

	svc := NewAuthService(repo, testSecret, time.Hour, bcrypt.MinCost)
	_, _, err := svc.Login(context.Background(), "a@b.com", "wrong")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownEmail(t *testing.T) {
	repo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*models.User, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}

	svc := NewAuthService(repo, testSecret, time.Hour, bcrypt.MinCost)
	_, _, err := svc.Login(context.Background(), "nobody@b.com", "password1")

	// Same error as a wrong password; does not leak which emails exist.
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_InactiveUser(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password1"), bcrypt.MinCost)
	repo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*models.User, error) {
			return &models.User{ID: 7, PasswordHash: string(hash), IsActive: false}, nil
		},
	}

	svc := NewAuthService(repo, testSecret, time.Hour, bcrypt.MinCost)
	_, _, err := svc.Login(context.Background(), "a@b.com", "password1")

	assert.ErrorIs(t, err, ErrUserInactive)
}
