package account

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/emberapp/ember-server/internal/app"
	"github.com/emberapp/ember-server/internal/db"
	svcErr "github.com/emberapp/ember-server/internal/errors"
	"github.com/emberapp/ember-server/internal/repository"
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,64}$`)
	emailPattern    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// RegisterInput is the payload for creating an account.
type RegisterInput struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Service covers account lifecycle: registration, email verification
// and login/logout stamps. The authentication protocol itself lives
// outside this core; callers hand us an opaque viewer identity.
type Service struct {
	appCtx *app.AppContext
	users  *repository.UserRepository
}

// NewService creates the account service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx: appCtx,
		users:  repository.NewUserRepository(appCtx.DB),
	}
}

// Register creates a user with a hashed password. Username and email
// collisions surface as conflicts.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*db.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if !usernamePattern.MatchString(in.Username) {
		return nil, svcErr.Validation("username must be 3-64 word characters")
	}
	if !emailPattern.MatchString(in.Email) {
		return nil, svcErr.Validation("invalid email address")
	}
	if len(in.Password) < 8 {
		return nil, svcErr.Validation("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &db.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, svcErr.Conflict("username or email already taken")
		}
		return nil, svcErr.Map(err)
	}

	s.appCtx.Logger.Info("user registered", "user", user.ID, "username", user.Username)
	return user, nil
}

// VerifyEmail flips the verification flag once the out-of-band check
// completed.
func (s *Service) VerifyEmail(ctx context.Context, userID uint64) error {
	if err := s.users.SetVerified(ctx, userID); err != nil {
		if repository.IsNotFound(err) {
			return svcErr.NotFound("user not found")
		}
		return svcErr.Map(err)
	}
	return nil
}

// TouchLogin stamps last login and flips the online flag.
func (s *Service) TouchLogin(ctx context.Context, userID uint64) error {
	return svcErr.Map(s.users.TouchLogin(ctx, userID, true))
}

// Logout clears the online flag and presence entry.
func (s *Service) Logout(ctx context.Context, userID uint64) error {
	if err := s.users.SetOnline(ctx, userID, false); err != nil {
		return svcErr.Map(err)
	}
	if err := s.appCtx.RedisCache.SetOffline(ctx, userID); err != nil {
		s.appCtx.Logger.Warn("presence clear failed", "user", userID, "err", err)
	}
	return nil
}
