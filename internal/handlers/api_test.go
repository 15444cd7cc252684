package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"oustaa/internal/models"
	"oustaa/internal/services"
	"oustaa/internal/utils"
	"oustaa/pkg/maps"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAuthEndpoints(t *testing.T) {
	env := newAPIEnv(t)

	signUp := map[string]interface{}{
		"email":     "salma@oustaa.ly",
		"password":  "secret123",
		"user_type": "rider",
		"full_name": "Salma",
	}
	w := env.do(t, http.MethodPost, "/api/v1/auth/signup", "", signUp)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created services.AuthResponse
	decodeEnvelope(t, w, &created)
	assert.Equal(t, "salma@oustaa.ly", created.Profile.Email)
	require.NotNil(t, created.Tokens)

	w = env.do(t, http.MethodPost, "/api/v1/auth/signup", "", signUp)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/auth/signin", "", map[string]string{"email": "salma@oustaa.ly", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/auth/signin", "", map[string]string{"email": "salma@oustaa.ly", "password": "secret123"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refresh_token": created.Tokens.RefreshToken})
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeEnvelope(t, w, nil)
	assert.Equal(t, utils.CodeValidation, body.Error.Code)
	assert.Contains(t, body.Error.Details, "refresh_token")
}

func TestEstimateFareEndpoint(t *testing.T) {
	env := newAPIEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/rides/estimate", "", services.EstimateFareRequest{
		Pickup:      tripoliPickup,
		Destination: tripoliDestination,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var estimate models.FareEstimate
	decodeEnvelope(t, w, &estimate)
	assert.Equal(t, 6.5, estimate.Price)
}

func TestRideLifecycleOverHTTP(t *testing.T) {
	env := newAPIEnv(t)
	rider, riderToken := env.account(t, "rider@oustaa.ly", models.UserTypeRider)
	driver, driverToken := env.account(t, "driver@oustaa.ly", models.UserTypeDriver)
	env.fund(t, rider, 20)

	w := env.do(t, http.MethodPut, "/api/v1/profile/location", driverToken, tripoliPickup)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = env.do(t, http.MethodPut, "/api/v1/profile/availability", driverToken, map[string]bool{"available": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/v1/rides/nearby-drivers?lat=32.8872&lng=13.1913", riderToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decodeEnvelope(t, w, nil).Meta.Count)

	w = env.do(t, http.MethodPost, "/api/v1/rides", riderToken, services.CreateRideRequest{
		Pickup:      tripoliPickup,
		Destination: tripoliDestination,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var ride models.Ride
	decodeEnvelope(t, w, &ride)
	assert.Equal(t, models.RideStatusAccepted, ride.Status)
	require.NotNil(t, ride.DriverID)
	assert.Equal(t, driver.ID, *ride.DriverID)

	w = env.do(t, http.MethodGet, "/api/v1/rides/active", riderToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var active models.Ride
	decodeEnvelope(t, w, &active)
	assert.Equal(t, ride.ID, active.ID)

	w = env.do(t, http.MethodPost, "/api/v1/rides/"+ride.ID.Hex()+"/messages", riderToken, map[string]string{"message": "  I am at the gate  "})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/v1/rides/"+ride.ID.Hex()+"/messages", driverToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var messages []*models.RideMessage
	decodeEnvelope(t, w, &messages)
	require.Len(t, messages, 1)
	assert.Equal(t, "I am at the gate", messages[0].Message)

	for _, status := range []models.RideStatus{models.RideStatusInProgress, models.RideStatusCompleted} {
		w = env.do(t, http.MethodPut, "/api/v1/rides/"+ride.ID.Hex()+"/status", driverToken, map[string]string{"status": string(status)})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodGet, "/api/v1/wallet", riderToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var wallet models.Wallet
	decodeEnvelope(t, w, &wallet)
	assert.Equal(t, 13.5, wallet.Balance)
	assert.Len(t, wallet.Transactions, 2)

	w = env.do(t, http.MethodGet, "/api/v1/wallet", driverToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeEnvelope(t, w, &wallet)
	assert.Equal(t, 6.5, wallet.Balance)

	w = env.do(t, http.MethodPost, "/api/v1/rides/"+ride.ID.Hex()+"/ratings", riderToken, map[string]interface{}{"rating": 5})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = env.do(t, http.MethodPost, "/api/v1/rides/"+ride.ID.Hex()+"/ratings", riderToken, map[string]interface{}{"rating": 4})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, utils.CodeAlreadyRated, decodeEnvelope(t, w, nil).Error.Code)

	w = env.do(t, http.MethodGet, "/api/v1/rides?status=completed", riderToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeEnvelope(t, w, nil)
	assert.Equal(t, int64(1), body.Meta.Total)

	w = env.do(t, http.MethodPut, "/api/v1/rides/"+ride.ID.Hex()+"/status", driverToken, map[string]string{"status": "cancelled"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, utils.CodeInvalidTransition, decodeEnvelope(t, w, nil).Error.Code)
}

func TestCreateRideRejectsInsufficientBalance(t *testing.T) {
	env := newAPIEnv(t)
	rider, token := env.account(t, "poor@oustaa.ly", models.UserTypeRider)
	env.fund(t, rider, 3)

	w := env.do(t, http.MethodPost, "/api/v1/rides", token, services.CreateRideRequest{
		Pickup:      tripoliPickup,
		Destination: tripoliDestination,
	})

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Equal(t, utils.CodeInsufficientBalance, decodeEnvelope(t, w, nil).Error.Code)
}

func TestRideEndpointsGuardRolesAndIDs(t *testing.T) {
	env := newAPIEnv(t)
	_, riderToken := env.account(t, "rider@oustaa.ly", models.UserTypeRider)
	_, driverToken := env.account(t, "driver@oustaa.ly", models.UserTypeDriver)

	w := env.do(t, http.MethodPost, "/api/v1/rides", driverToken, services.CreateRideRequest{Pickup: tripoliPickup, Destination: tripoliDestination})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/rides/pending", riderToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/rides/not-an-id", riderToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/rides/nearby-drivers", riderToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/rides/nearby-drivers?lat=abc&lng=13.1", riderToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/rides/active", riderToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeEnvelope(t, w, nil).Data)

	w = env.do(t, http.MethodGet, "/api/v1/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPendingRideAcceptedByDriver(t *testing.T) {
	env := newAPIEnv(t)
	rider, riderToken := env.account(t, "rider@oustaa.ly", models.UserTypeRider)
	_, driverToken := env.account(t, "driver@oustaa.ly", models.UserTypeDriver)
	env.fund(t, rider, 20)

	w := env.do(t, http.MethodPost, "/api/v1/rides", riderToken, services.CreateRideRequest{Pickup: tripoliPickup, Destination: tripoliDestination})
	require.Equal(t, http.StatusCreated, w.Code)
	var ride models.Ride
	decodeEnvelope(t, w, &ride)
	require.Equal(t, models.RideStatusPending, ride.Status)

	w = env.do(t, http.MethodGet, "/api/v1/rides/pending", driverToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decodeEnvelope(t, w, nil).Meta.Count)

	w = env.do(t, http.MethodPost, "/api/v1/rides/"+ride.ID.Hex()+"/accept", driverToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	_, otherDriverToken := env.account(t, "late@oustaa.ly", models.UserTypeDriver)
	w = env.do(t, http.MethodPost, "/api/v1/rides/"+ride.ID.Hex()+"/accept", otherDriverToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, utils.CodeRideNotPending, decodeEnvelope(t, w, nil).Error.Code)
}

func TestProfileEndpoints(t *testing.T) {
	env := newAPIEnv(t)
	_, riderToken := env.account(t, "rider@oustaa.ly", models.UserTypeRider)

	w := env.do(t, http.MethodPatch, "/api/v1/profile", riderToken, map[string]string{"full_name": "Salma Ali", "phone": "+218911234567"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var profile models.Profile
	decodeEnvelope(t, w, &profile)
	assert.Equal(t, "Salma Ali", profile.FullName)

	w = env.do(t, http.MethodPatch, "/api/v1/profile", riderToken, map[string]string{"car_model": "Kia Rio"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPut, "/api/v1/profile/availability", riderToken, map[string]bool{"available": true})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPut, "/api/v1/profile/location", riderToken, models.Coordinates{Latitude: 120, Longitude: 13})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPut, "/api/v1/profile/location", riderToken, tripoliPickup)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodPut, "/api/v1/profile/location", riderToken, tripoliDestination)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestUploadAvatar(t *testing.T) {
	env := newAPIEnv(t)
	_, token := env.account(t, "rider@oustaa.ly", models.UserTypeRider)

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("avatar", "me.png")
	require.NoError(t, err)
	_, err = part.Write(append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/profile/avatar", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var profile models.Profile
	decodeEnvelope(t, w, &profile)
	assert.True(t, strings.HasPrefix(profile.AvatarURL, "http://localhost:8080/uploads/avatars/"))
	assert.True(t, strings.HasSuffix(profile.AvatarURL, ".png"))

	req = httptest.NewRequest(http.MethodPost, "/api/v1/profile/avatar", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWalletEndpointsWithoutPaymentProvider(t *testing.T) {
	env := newAPIEnv(t)
	_, token := env.account(t, "rider@oustaa.ly", models.UserTypeRider)

	w := env.do(t, http.MethodPost, "/api/v1/wallet/topup", token, map[string]float64{"amount": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/wallet/topup", token, map[string]float64{"amount": 25})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/webhooks/stripe", "", map[string]string{"type": "payment_intent.succeeded"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMapEndpoints(t *testing.T) {
	env := newAPIEnv(t)
	_, token := env.account(t, "rider@oustaa.ly", models.UserTypeRider)

	env.maps.On("SearchPlaces", mock.Anything, mock.MatchedBy(func(r *maps.PlaceSearchRequest) bool {
		return r.Query == "Martyrs Square" && r.Proximity != nil
	})).Return([]maps.Place{{PlaceName: "Martyrs Square, Tripoli", Center: [2]float64{13.1806, 32.8953}}}, nil)
	env.maps.On("ReverseGeocode", mock.Anything, tripoliPickup.Latitude, tripoliPickup.Longitude).Return("", maps.ErrNoResults)
	env.maps.On("GetRoute", mock.Anything, mock.Anything).Return(nil, maps.ErrNoResults)

	w := env.do(t, http.MethodGet, "/api/v1/maps/search?q=Martyrs+Square&lat=32.8872&lng=13.1913", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var places []maps.Place
	decodeEnvelope(t, w, &places)
	require.Len(t, places, 1)
	assert.Equal(t, "Martyrs Square, Tripoli", places[0].PlaceName)

	w = env.do(t, http.MethodGet, "/api/v1/maps/search", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decodeEnvelope(t, w, nil).Meta.Count)

	w = env.do(t, http.MethodGet, "/api/v1/maps/reverse?lat=32.8872&lng=13.1913", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var reverse reverseGeocodeResponse
	decodeEnvelope(t, w, &reverse)
	assert.Equal(t, "32.887200, 13.191300", reverse.Address)

	w = env.do(t, http.MethodPost, "/api/v1/maps/route", token, routeRequest{Start: tripoliPickup, End: tripoliDestination})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
