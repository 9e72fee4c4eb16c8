package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/complaint_desk/internal/events"
	"github.com/Skotchmaster/complaint_desk/internal/models"
	"github.com/Skotchmaster/complaint_desk/internal/repo"
	"github.com/Skotchmaster/complaint_desk/internal/roles"
	"github.com/Skotchmaster/complaint_desk/internal/testutil"
	"github.com/Skotchmaster/complaint_desk/pkg/tokens"
)

var testSecret = []byte(strings.Repeat("k", 64))

type fixture struct {
	db        *gorm.DB
	users     *repo.UserRepo
	tokens    *repo.TokenRepo
	signer    *tokens.Signer
	issuer    *Issuer
	validator *Validator
	revoker   *Revoker
	svc       *Service
	events    *testutil.Recorder
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	signer, err := tokens.NewSigner(testSecret, 32)
	require.NoError(t, err)

	f := &fixture{
		db:     db,
		users:  &repo.UserRepo{DB: db},
		tokens: &repo.TokenRepo{DB: db},
		signer: signer,
		events: &testutil.Recorder{},
		now:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }

	f.issuer = &Issuer{Tokens: f.tokens, Signer: signer, Lifetime: time.Hour, Now: clock}
	f.validator = &Validator{Tokens: f.tokens, Users: f.users, Signer: signer, Now: clock}
	f.revoker = &Revoker{Tokens: f.tokens}
	f.svc = &Service{
		Verifier: &Verifier{Users: f.users, Hasher: testutil.FastHasher},
		Issuer:   f.issuer,
		Revoker:  f.revoker,
		Accounts: f.users,
		Hasher:   testutil.FastHasher,
		Events:   f.events,
	}
	return f
}

func TestLogin_IssuesPersistedVerifiableToken(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	alice := testutil.CreateUser(t, f.db, "alice", "11111111", roles.User)
	ctx := context.Background()

	issued, err := f.svc.Login(ctx, "alice", "password")
	require.NoError(t, err)

	rec, err := f.tokens.FindByTokenString(ctx, issued.Token)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, rec.UserID)
	assert.False(t, rec.Revoked)
	assert.False(t, rec.Expired)
	assert.True(t, rec.ExpiresAt.After(rec.CreatedAt))
	assert.WithinDuration(t, f.now.Add(time.Hour), rec.ExpiresAt, 0)

	claims, err := f.signer.Parse(issued.Token, f.now)
	require.NoError(t, err)
	assert.Equal(t, "11111111", claims.Subject)
	assert.Equal(t, "USER", claims.Role)
	assert.Equal(t, rec.ExpiresAt.Unix(), claims.ExpiresAt.Unix())

	assert.Equal(t, []events.Type{events.UserLoggedIn}, f.events.Types())
}

func TestVerifier_Failures(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	bob := testutil.CreateUser(t, f.db, "bob", "22222222", roles.User)
	testutil.CreateUser(t, f.db, "carol", "33333333", roles.User)
	require.NoError(t, f.users.SetEnabled(context.Background(), bob.ID, false))

	tests := []struct {
		name     string
		username string
		password string
		want     error
	}{
		{name: "unknown user", username: "nobody", password: "password", want: ErrUserNotFound},
		{name: "disabled user", username: "bob", password: "password", want: ErrUserNotFound},
		{name: "wrong password", username: "carol", password: "wrong-password", want: ErrInvalidCredentials},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			user, err := f.svc.Verifier.Verify(context.Background(), tt.username, tt.password)
			assert.Nil(t, user)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := f.svc.Login(context.Background(), "carol", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Contains(t, f.events.Types(), events.LoginFailed)
}

func TestLogin_Validation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.svc.Login(context.Background(), "", "password")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.svc.Login(context.Background(), "alice", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestValidate_SucceedsUntilExpiry(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	alice := testutil.CreateUser(t, f.db, "alice", "11111111", roles.User)
	ctx := context.Background()

	issued, err := f.issuer.Issue(ctx, alice)
	require.NoError(t, err)

	id, err := f.validator.Validate(ctx, issued.Token)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: alice.ID, Subject: "11111111", Username: "alice", Role: roles.User}, *id)

	f.now = f.now.Add(59 * time.Minute)
	_, err = f.validator.Validate(ctx, issued.Token)
	require.NoError(t, err)

	f.now = issued.ExpiresAt
	_, err = f.validator.Validate(ctx, issued.Token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestRevoke_IdempotentAndImmediate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	alice := testutil.CreateUser(t, f.db, "alice", "11111111", roles.User)
	ctx := context.Background()

	issued, err := f.issuer.Issue(ctx, alice)
	require.NoError(t, err)
	_, err = f.validator.Validate(ctx, issued.Token)
	require.NoError(t, err)

	require.NoError(t, f.revoker.Revoke(ctx, issued.Token))
	_, err = f.validator.Validate(ctx, issued.Token)
	assert.ErrorIs(t, err, ErrRevokedToken)

	require.NoError(t, f.revoker.Revoke(ctx, issued.Token))
	rec, err := f.tokens.FindByTokenString(ctx, issued.Token)
	require.NoError(t, err)
	assert.True(t, rec.Revoked)

	require.NoError(t, f.revoker.Revoke(ctx, "never-issued"))
	require.NoError(t, f.revoker.Revoke(ctx, ""))
}

func TestValidate_RejectionOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	alice := testutil.CreateUser(t, f.db, "alice", "11111111", roles.User)
	ctx := context.Background()

	foreignSigner, err := tokens.NewSigner([]byte(strings.Repeat("x", 64)), 32)
	require.NoError(t, err)
	foreign, err := foreignSigner.Sign("11111111", "ADMIN", f.now, f.now.Add(time.Hour))
	require.NoError(t, err)

	issued, err := f.issuer.Issue(ctx, alice)
	require.NoError(t, err)
	parts := strings.Split(issued.Token, ".")
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(`{"rol":"ADMIN","sub":"11111111","exp":1900000000}`))
	tampered := strings.Join(parts, ".")

	insert := func(s string, mutate func(*models.Token)) {
		rec := &models.Token{Token: s, UserID: alice.ID, CreatedAt: f.now, ExpiresAt: f.now.Add(time.Hour)}
		if mutate != nil {
			mutate(rec)
		}
		require.NoError(t, f.tokens.Insert(ctx, rec))
	}

	_, err = f.validator.Validate(ctx, foreign)
	assert.ErrorIs(t, err, ErrUnknownToken, "foreign token never reaches the signature check")

	insert(foreign, nil)
	_, err = f.validator.Validate(ctx, foreign)
	assert.ErrorIs(t, err, ErrMalformedToken)

	insert(tampered, nil)
	_, err = f.validator.Validate(ctx, tampered)
	assert.ErrorIs(t, err, ErrMalformedToken)

	revokedForged := foreign + "x"
	insert(revokedForged, func(r *models.Token) { r.Revoked = true })
	_, err = f.validator.Validate(ctx, revokedForged)
	assert.ErrorIs(t, err, ErrRevokedToken, "record checks run before the signature check")

	flagged := foreign + "y"
	insert(flagged, func(r *models.Token) { r.Expired = true })
	_, err = f.validator.Validate(ctx, flagged)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidate_DisabledOrMissingUser(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	alice := testutil.CreateUser(t, f.db, "alice", "11111111", roles.User)
	ctx := context.Background()

	issued, err := f.issuer.Issue(ctx, alice)
	require.NoError(t, err)

	require.NoError(t, f.users.SetEnabled(ctx, alice.ID, false))
	_, err = f.validator.Validate(ctx, issued.Token)
	assert.ErrorIs(t, err, ErrDisabledOrMissingUser)

	rec, err := f.tokens.FindByTokenString(ctx, issued.Token)
	require.NoError(t, err)
	assert.False(t, rec.Revoked, "disabling does not revoke")

	require.NoError(t, f.users.SetEnabled(ctx, alice.ID, true))
	_, err = f.validator.Validate(ctx, issued.Token)
	require.NoError(t, err)

	ghost := &models.User{ID: 999, NationalID: "99999999", Role: roles.User.String()}
	orphan, err := f.issuer.Issue(ctx, ghost)
	require.NoError(t, err)
	_, err = f.validator.Validate(ctx, orphan.Token)
	assert.ErrorIs(t, err, ErrDisabledOrMissingUser)
}

func TestValidate_RoleFollowsUserRow(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	alice := testutil.CreateUser(t, f.db, "alice", "11111111", roles.User)
	ctx := context.Background()

	issued, err := f.issuer.Issue(ctx, alice)
	require.NoError(t, err)

	require.NoError(t, f.db.Model(&models.User{}).Where("id = ?", alice.ID).Update("role", roles.Moderator.String()).Error)
	id, err := f.validator.Validate(ctx, issued.Token)
	require.NoError(t, err)
	assert.Equal(t, roles.Moderator, id.Role)
}

type brokenTokens struct{ err error }

func (b brokenTokens) Insert(context.Context, *models.Token) error { return b.err }
func (b brokenTokens) FindByTokenString(context.Context, string) (*models.Token, error) {
	return nil, b.err
}
func (b brokenTokens) MarkRevoked(context.Context, string) (int64, error)   { return 0, b.err }
func (b brokenTokens) RevokeAllForUser(context.Context, uint) (int64, error) { return 0, b.err }

func TestStoreFailures_FailClosed(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	alice := testutil.CreateUser(t, f.db, "alice", "11111111", roles.User)
	ctx := context.Background()
	broken := brokenTokens{err: errors.New("connection refused")}

	v := &Validator{Tokens: broken, Users: f.users, Signer: f.signer}
	_, err := v.Validate(ctx, "anything")
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	i := &Issuer{Tokens: broken, Signer: f.signer, Lifetime: time.Hour}
	_, err = i.Issue(ctx, alice)
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	r := &Revoker{Tokens: broken}
	assert.ErrorIs(t, r.Revoke(ctx, "anything"), ErrStoreUnavailable)
	_, err = r.RevokeAll(ctx, alice.ID)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestRegister(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	in := RegisterInput{
		Username:   "dave",
		Password:   "s3cret-pass",
		NationalID: "44444444",
		Email:      "Dave@Example.com",
		FirstName:  "Dave",
		LastName:   "Doe",
	}

	u, err := f.svc.Register(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, roles.User.String(), u.Role)
	assert.True(t, u.Enabled)
	assert.Equal(t, "dave@example.com", u.Email)
	assert.NotEqual(t, in.Password, u.PasswordHash)

	_, err = f.svc.Register(ctx, in)
	assert.ErrorIs(t, err, ErrConflict)

	issued, err := f.svc.Login(ctx, "dave", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, issued.Token)

	bad := []RegisterInput{
		{Password: "s3cret-pass", NationalID: "55555555", Email: "e@x.io", FirstName: "a", LastName: "b"},
		{Username: "e", Password: "short", NationalID: "55555555", Email: "e@x.io", FirstName: "a", LastName: "b"},
		{Username: "e", Password: "s3cret-pass", NationalID: "12-34", Email: "e@x.io", FirstName: "a", LastName: "b"},
		{Username: "e", Password: "s3cret-pass", NationalID: "55555555", Email: "nope", FirstName: "a", LastName: "b"},
		{Username: "e", Password: "s3cret-pass", NationalID: "55555555", Email: "e@x.io"},
	}
	for _, b := range bad {
		_, err := f.svc.Register(ctx, b)
		assert.ErrorIs(t, err, ErrValidation)
	}
}

func TestEnsureUser_SkipsExisting(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	in := RegisterInput{
		Username:   "root",
		Password:   "admin-password",
		NationalID: "00000001",
		Email:      "root@example.com",
		FirstName:  "Root",
		LastName:   "Admin",
	}

	u, err := f.svc.EnsureUser(ctx, in, roles.Admin)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, roles.Admin.String(), u.Role)

	u, err = f.svc.EnsureUser(ctx, in, roles.Admin)
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestLogout(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	alice := testutil.CreateUser(t, f.db, "alice", "11111111", roles.User)
	issued, err := f.issuer.Issue(context.Background(), alice)
	require.NoError(t, err)

	ctx := WithIdentity(context.Background(), Identity{UserID: alice.ID, Subject: alice.NationalID, Username: "alice", Role: roles.User})
	require.NoError(t, f.svc.Logout(ctx, issued.Token))
	require.NoError(t, f.svc.Logout(ctx, ""))

	_, err = f.validator.Validate(context.Background(), issued.Token)
	assert.ErrorIs(t, err, ErrRevokedToken)

	require.Len(t, f.events.Events, 1)
	assert.Equal(t, events.TokenRevoked, f.events.Events[0].Type)
	assert.Equal(t, alice.ID, f.events.Events[0].UserID)
}

func TestReason(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "unknown_token", Reason(ErrUnknownToken))
	assert.Equal(t, "store_unavailable", Reason(errors.Join(errors.New("x"), ErrStoreUnavailable)))
	assert.Equal(t, "internal", Reason(errors.New("other")))
	assert.Empty(t, Reason(nil))
}
