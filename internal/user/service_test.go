package user

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"lifebridge/internal/domain"
	"lifebridge/internal/hospital"
	dErrors "lifebridge/pkg/domainerrors"
)

type stubGeocoder struct {
	loc domain.Location
	err error
}

func (g stubGeocoder) GetCoordinates(_ context.Context, _ string) (domain.Location, error) {
	return g.loc, g.err
}

type stubIssuer struct{}

func (stubIssuer) Issue(userID, _, _ string) (string, error) {
	return "token-for-" + userID, nil
}

func newTestService(g stubGeocoder) (*Service, *InMemoryStore, *hospital.InMemoryStore) {
	users := NewInMemoryStore()
	hospitals := hospital.NewInMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(users, hospitals, g, stubIssuer{}, logger), users, hospitals
}

func TestRegisterDonor(t *testing.T) {
	svc, _, _ := newTestService(stubGeocoder{loc: domain.Location{Lat: 12.97, Lng: 77.59}})

	res, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Asha",
		Email:    "asha@example.com",
		Password: "s3cret-pass",
		Role:     domain.RoleDonor,
		Address:  "Bangalore",
	})
	require.NoError(t, err)
	require.NotNil(t, res.User)

	assert.NotEmpty(t, res.User.ID)
	assert.Equal(t, "token-for-"+res.User.ID, res.Token)
	require.NotNil(t, res.User.Location)
	assert.InDelta(t, 12.97, res.User.Location.Lat, 1e-9)

	err = bcrypt.CompareHashAndPassword([]byte(res.User.PasswordHash), []byte("s3cret-pass"))
	assert.NoError(t, err, "stored hash must verify against the original password")
}

func TestRegisterRejectsUnresolvableAddress(t *testing.T) {
	svc, _, _ := newTestService(stubGeocoder{
		err: dErrors.New(dErrors.CodeLocationNotFound, "could not resolve address"),
	})

	_, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Asha",
		Email:    "asha@example.com",
		Password: "s3cret-pass",
		Role:     domain.RoleDonor,
		Address:  "nowhere in particular",
	})
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeLocationNotFound))
}

func TestRegisterWithoutAddressSkipsGeocoding(t *testing.T) {
	svc, _, _ := newTestService(stubGeocoder{err: errors.New("should not be called")})

	res, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Asha",
		Email:    "asha@example.com",
		Password: "s3cret-pass",
		Role:     domain.RoleDonor,
	})
	require.NoError(t, err)
	assert.Nil(t, res.User.Location)
}

func TestRegisterDoctorBindsHospital(t *testing.T) {
	svc, _, hospitals := newTestService(stubGeocoder{loc: domain.Location{Lat: 1, Lng: 2}})

	first, err := svc.Register(context.Background(), RegisterInput{
		Name:            "Dr. Rao",
		Email:           "rao@example.com",
		Password:        "pw-123456",
		Role:            domain.RoleDoctor,
		Address:         "Mysore",
		HospitalName:    "City Care",
		HospitalAddress: "1 Main St",
	})
	require.NoError(t, err)
	require.NotEmpty(t, first.User.HospitalID)

	// A second doctor at the same site reuses the existing hospital record.
	second, err := svc.Register(context.Background(), RegisterInput{
		Name:            "Dr. Iyer",
		Email:           "iyer@example.com",
		Password:        "pw-123456",
		Role:            domain.RoleDoctor,
		Address:         "Mysore",
		HospitalName:    "City Care",
		HospitalAddress: "1 Main St",
	})
	require.NoError(t, err)
	assert.Equal(t, first.User.HospitalID, second.User.HospitalID)

	all, err := hospitals.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRegisterDoctorRequiresHospital(t *testing.T) {
	svc, _, _ := newTestService(stubGeocoder{})

	_, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Dr. Rao",
		Email:    "rao@example.com",
		Password: "pw-123456",
		Role:     domain.RoleDoctor,
	})
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService(stubGeocoder{})

	in := RegisterInput{
		Name:     "Asha",
		Email:    "asha@example.com",
		Password: "s3cret-pass",
		Role:     domain.RoleDonor,
	}
	_, err := svc.Register(context.Background(), in)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), in)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
}

func TestLogin(t *testing.T) {
	svc, _, _ := newTestService(stubGeocoder{})

	_, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Asha",
		Email:    "asha@example.com",
		Password: "s3cret-pass",
		Role:     domain.RoleDonor,
	})
	require.NoError(t, err)

	t.Run("correct password", func(t *testing.T) {
		res, err := svc.Login(context.Background(), "asha@example.com", "s3cret-pass")
		require.NoError(t, err)
		assert.Equal(t, "asha@example.com", res.User.Email)
		assert.NotEmpty(t, res.Token)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "asha@example.com", "wrong")
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "nobody@example.com", "s3cret-pass")
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
	})
}
