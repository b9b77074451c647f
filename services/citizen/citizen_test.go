package citizen

import (
	"context"
	"testing"
	"time"

	"lexconnect/database/repository/memrepo"
	"lexconnect/models"
	"lexconnect/services/account"
	"lexconnect/services/audit"
	"lexconnect/services/geocoding"
	"lexconnect/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGeocoder struct{ calls int }

func (f *fakeGeocoder) Geocode(_ context.Context, address string) (*geocoding.Result, error) {
	f.calls++
	return &geocoding.Result{Location: models.NewGeoPoint(-1.29, 36.82), FormattedAddress: address}, nil
}

func newService() (*DefaultCitizenService, *account.MemoryOTPStore, *account.MemorySessionCache) {
	otp := account.NewMemoryOTPStore()
	sessions := account.NewMemorySessionCache()
	return &DefaultCitizenService{
		Repo:     memrepo.NewCitizens(),
		Sessions: sessions,
		OTP:      otp,
		Audit:    audit.Nop{},
		Geocoder: &fakeGeocoder{},
		Now:      func() time.Time { return time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC) },
	}, otp, sessions
}

func register(t *testing.T, s *DefaultCitizenService) *account.AuthResponse {
	t.Helper()
	resp, err := s.Register(context.Background(), models.CitizenRegistration{
		FullName: "Amina Otieno",
		Email:    " Amina@Example.com ",
		Password: "Str0ng!pass",
		City:     "Nairobi",
	}, models.RequestMeta{})
	require.NoError(t, err)
	return resp
}

func TestRegisterAndLogin(t *testing.T) {
	s, _, _ := newService()
	ctx := context.Background()
	resp := register(t, s)
	assert.Equal(t, utils.RoleCitizen, resp.Role)

	c, err := s.GetProfile(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, "amina@example.com", c.Email)
	require.NotNil(t, c.LocationGeo)
	assert.Equal(t, utils.HashToken(resp.Token), c.TokenHash)

	_, err = s.Register(ctx, models.CitizenRegistration{FullName: "X", Email: "amina@example.com", Password: "Str0ng!pass"}, models.RequestMeta{})
	assert.ErrorIs(t, err, account.ErrEmailTaken)

	_, err = s.Login(ctx, "amina@example.com", "wrong", models.RequestMeta{})
	assert.ErrorIs(t, err, account.ErrInvalidCredentials)
	_, err = s.Login(ctx, "nobody@example.com", "Str0ng!pass", models.RequestMeta{})
	assert.ErrorIs(t, err, account.ErrInvalidCredentials)

	login, err := s.Login(ctx, "AMINA@example.com", "Str0ng!pass", models.RequestMeta{})
	require.NoError(t, err)
	state, err := s.SessionState(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, utils.HashToken(login.Token), state.TokenHash)
}

func TestLogoutRevokesToken(t *testing.T) {
	s, _, sessions := newService()
	ctx := context.Background()
	resp := register(t, s)
	require.NoError(t, sessions.Put(ctx, utils.RoleCitizen, resp.ID, account.SessionState{TokenHash: "x"}))

	require.NoError(t, s.Logout(ctx, resp.ID, models.RequestMeta{}))
	state, err := s.SessionState(ctx, resp.ID)
	require.NoError(t, err)
	assert.Empty(t, state.TokenHash)
	_, err = sessions.Get(ctx, utils.RoleCitizen, resp.ID)
	assert.ErrorIs(t, err, account.ErrCacheMiss)
}

func TestSuspendedCitizenCannotLogin(t *testing.T) {
	s, _, _ := newService()
	ctx := context.Background()
	resp := register(t, s)
	require.NoError(t, s.Repo.UpdateSetDocument(ctx, resp.ID, map[string]interface{}{"status": models.AccountSuspended}))
	_, err := s.Login(ctx, "amina@example.com", "Str0ng!pass", models.RequestMeta{})
	assert.ErrorIs(t, err, account.ErrSuspended)
}

func TestPasswordResetFlow(t *testing.T) {
	s, otp, _ := newService()
	ctx := context.Background()
	register(t, s)

	require.NoError(t, s.RequestPasswordReset(ctx, "nobody@example.com"), "unknown emails are not revealed")
	require.NoError(t, s.RequestPasswordReset(ctx, "amina@example.com"))
	code := otp.Code(account.PurposePasswordReset, account.ResetSubject(utils.RoleCitizen, "amina@example.com"))
	require.NotEmpty(t, code)

	err := s.ResetPassword(ctx, "amina@example.com", "000000", "N3w!password", models.RequestMeta{})
	assert.ErrorIs(t, err, account.ErrInvalidOTP)

	require.NoError(t, s.ResetPassword(ctx, "amina@example.com", code, "N3w!password", models.RequestMeta{}))
	_, err = s.Login(ctx, "amina@example.com", "N3w!password", models.RequestMeta{})
	assert.NoError(t, err)
}

func TestChangePasswordAndUpdateProfile(t *testing.T) {
	s, _, _ := newService()
	ctx := context.Background()
	resp := register(t, s)

	err := s.ChangePassword(ctx, resp.ID, "bad", "N3w!password", models.RequestMeta{})
	assert.ErrorIs(t, err, account.ErrInvalidCredentials)
	require.NoError(t, s.ChangePassword(ctx, resp.ID, "Str0ng!pass", "N3w!password", models.RequestMeta{}))

	phone, token := "+254700000000", "fcm-token"
	c, err := s.UpdateProfile(ctx, resp.ID, models.CitizenUpdate{PhoneNumber: &phone, FCMToken: &token})
	require.NoError(t, err)
	assert.Equal(t, phone, c.PhoneNumber)
	assert.Equal(t, token, c.FCMToken)

	empty := " "
	_, err = s.UpdateProfile(ctx, resp.ID, models.CitizenUpdate{FullName: &empty})
	assert.ErrorIs(t, err, utils.ErrInvalid)
}
