package tenants

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mkaraca/dukkan/internal/server/auth"
	"github.com/mkaraca/dukkan/internal/server/config"
)

type fakeRepo struct {
	byLogin map[string]*Tenant
	nextID  string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byLogin: map[string]*Tenant{}, nextID: "tenant-1"}
}

func (r *fakeRepo) Create(_ context.Context, tenant *Tenant) (*Tenant, error) {
	if _, ok := r.byLogin[tenant.Login]; ok {
		return nil, ErrLoginTaken
	}
	tenant.ID = r.nextID
	tenant.CreatedAt = time.Now()
	r.byLogin[tenant.Login] = tenant
	return tenant, nil
}

func (r *fakeRepo) GetByLogin(_ context.Context, login string) (*Tenant, error) {
	t, ok := r.byLogin[login]
	if !ok {
		return nil, ErrNotFound
	}
	return t, nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	return cfg
}

func TestService_Register(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, testConfig())

	tenant, err := svc.Register(context.Background(), "salon@example.com", "s3cret", "Salon One")
	require.NoError(t, err)
	require.NotEmpty(t, tenant.ID)

	assert.NotEqual(t, []byte("s3cret"), tenant.PasswordHash, "password must not be stored in clear text")
	assert.NoError(t, bcrypt.CompareHashAndPassword(tenant.PasswordHash, []byte("s3cret")))
}

func TestService_Register_LoginTaken(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, testConfig())

	_, err := svc.Register(context.Background(), "salon@example.com", "s3cret", "Salon One")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "salon@example.com", "other", "Salon Two")
	assert.ErrorIs(t, err, ErrLoginTaken)
}

func TestService_Login(t *testing.T) {
	repo := newFakeRepo()
	cfg := testConfig()
	svc := NewService(repo, cfg)

	registered, err := svc.Register(context.Background(), "salon@example.com", "s3cret", "Salon One")
	require.NoError(t, err)

	token, err := svc.Login(context.Background(), "salon@example.com", "s3cret")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	businessID, err := auth.GetBusinessIDFromToken(token, []byte(cfg.SecretKey))
	require.NoError(t, err)
	assert.Equal(t, registered.ID, businessID, "token must carry the tenant's ID")
}

func TestService_Login_WrongPassword(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, testConfig())

	_, err := svc.Register(context.Background(), "salon@example.com", "s3cret", "Salon One")
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "salon@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_Login_UnknownLogin(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, testConfig())

	_, err := svc.Login(context.Background(), "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
