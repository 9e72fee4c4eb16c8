package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode"

	"github.com/Skotchmaster/complaint_desk/internal/events"
	"github.com/Skotchmaster/complaint_desk/internal/hash"
	"github.com/Skotchmaster/complaint_desk/internal/models"
	"github.com/Skotchmaster/complaint_desk/internal/repo"
	"github.com/Skotchmaster/complaint_desk/internal/roles"
	"github.com/Skotchmaster/complaint_desk/pkg/logging"
)

const minPasswordLen = 8

type AccountStore interface {
	Create(ctx context.Context, u *models.User) error
}

type Service struct {
	Verifier *Verifier
	Issuer   *Issuer
	Revoker  *Revoker
	Accounts AccountStore
	Hasher   hash.Hasher
	Events   events.Publisher
}

type RegisterInput struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	NationalID string `json:"national_id"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
}

func (in *RegisterInput) normalize() {
	in.Username = strings.TrimSpace(in.Username)
	in.NationalID = strings.ToUpper(strings.TrimSpace(in.NationalID))
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
}

func (in RegisterInput) validate() error {
	switch {
	case in.Username == "":
		return fmt.Errorf("%w: username is required", ErrValidation)
	case len(in.Password) < minPasswordLen:
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLen)
	case !validNationalID(in.NationalID):
		return fmt.Errorf("%w: national_id must be 6 to 20 letters or digits", ErrValidation)
	case in.FirstName == "" || in.LastName == "":
		return fmt.Errorf("%w: first_name and last_name are required", ErrValidation)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return fmt.Errorf("%w: email is invalid", ErrValidation)
	}
	return nil
}

func validNationalID(s string) bool {
	if len(s) < 6 || len(s) > 20 {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Register creates an enabled account with role USER.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	return s.create(ctx, in, roles.User)
}

// EnsureUser creates the account unless one with the same login name
// already exists. It backs the bootstrap administrator.
func (s *Service) EnsureUser(ctx context.Context, in RegisterInput, role roles.Role) (*models.User, error) {
	u, err := s.create(ctx, in, role)
	if errors.Is(err, ErrConflict) {
		return nil, nil
	}
	return u, err
}

func (s *Service) create(ctx context.Context, in RegisterInput, role roles.Role) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	in.normalize()
	if err := in.validate(); err != nil {
		l.Warn("register rejected", "status", 400, "error", err)
		return nil, err
	}

	pwHash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		l.Error("register failed", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := &models.User{
		Username:     in.Username,
		NationalID:   in.NationalID,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: pwHash,
		Role:         role.String(),
		Enabled:      true,
	}
	if err := s.Accounts.Create(ctx, user); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			l.Warn("register rejected", "status", 409, "reason", "user already exists")
			return nil, ErrConflict
		}
		l.Error("register failed", "status", 500, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	events.Emit(ctx, s.Events, events.Event{
		Type:     events.UserRegistered,
		UserID:   user.ID,
		Subject:  user.NationalID,
		Username: user.Username,
	})
	l.Info("user registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

func (s *Service) Login(ctx context.Context, username, password string) (*Issued, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	if strings.TrimSpace(username) == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrValidation)
	}

	user, err := s.Verifier.Verify(ctx, username, password)
	if err != nil {
		if errors.Is(err, ErrStoreUnavailable) {
			l.Error("login failed", "status", 500, "reason", Reason(err), "error", err)
			return nil, err
		}
		l.Warn("login failed", "status", 401, "reason", Reason(err))
		events.Emit(ctx, s.Events, events.Event{Type: events.LoginFailed, Username: username, Reason: Reason(err)})
		return nil, err
	}

	issued, err := s.Issuer.Issue(ctx, user)
	if err != nil {
		l.Error("login failed", "status", 500, "reason", "cannot issue token", "error", err)
		return nil, err
	}

	events.Emit(ctx, s.Events, events.Event{
		Type:     events.UserLoggedIn,
		UserID:   user.ID,
		Subject:  user.NationalID,
		Username: user.Username,
	})
	l.Info("login successful", "user_id", user.ID)
	return issued, nil
}

// Logout revokes the presented token. The identity on ctx, if the token
// was still valid, only enriches the audit event.
func (s *Service) Logout(ctx context.Context, token string) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	if token == "" {
		return nil
	}
	if err := s.Revoker.Revoke(ctx, token); err != nil {
		l.Error("logout failed", "status", 500, "reason", Reason(err), "error", err)
		return err
	}

	ev := events.Event{Type: events.TokenRevoked, Reason: "logout"}
	if id, ok := IdentityFrom(ctx); ok {
		ev.UserID, ev.Subject, ev.Username = id.UserID, id.Subject, id.Username
	}
	events.Emit(ctx, s.Events, ev)
	l.Info("logout successful")
	return nil
}
