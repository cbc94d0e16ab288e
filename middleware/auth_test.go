package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/prediction-pool/models"
)

var testSecret = []byte("test-secret")

func sign(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return token
}

func claimsFor(userID int, role models.UserRole) jwt.MapClaims {
	return jwt.MapClaims{
		"user_id": userID,
		"role":    string(role),
		"exp":     time.Now().Add(time.Hour).Unix(),
		"iat":     time.Now().Unix(),
	}
}

func adminOnly() http.Handler {
	return Authenticate(testSecret, nil)(RequireRole(models.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := GetUserIDFromContext(r.Context())
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("X-User", strconv.Itoa(id))
		w.WriteHeader(http.StatusNoContent)
	})))
}

func TestAuthenticateAndRequireRole(t *testing.T) {
	expired := claimsFor(1, models.RoleAdmin)
	expired["exp"] = time.Now().Add(-time.Minute).Unix()

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "admin", header: "Bearer " + sign(t, testSecret, claimsFor(7, models.RoleAdmin)), want: http.StatusNoContent},
		{name: "player", header: "Bearer " + sign(t, testSecret, claimsFor(7, models.RolePlayer)), want: http.StatusForbidden},
		{name: "no header", header: "", want: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic abc", want: http.StatusUnauthorized},
		{name: "wrong secret", header: "Bearer " + sign(t, []byte("other"), claimsFor(7, models.RoleAdmin)), want: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + sign(t, testSecret, expired), want: http.StatusUnauthorized},
		{name: "unknown role", header: "Bearer " + sign(t, testSecret, claimsFor(7, "organizer")), want: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			adminOnly().ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusNoContent {
				assert.Equal(t, "7", rec.Header().Get("X-User"))
				return
			}
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestGetUserIDFromContext(t *testing.T) {
	tests := []struct {
		name    string
		claim   interface{}
		want    int
		wantErr bool
	}{
		{name: "json number", claim: float64(12), want: 12},
		{name: "string", claim: "12", want: 12},
		{name: "fractional", claim: 1.5, wantErr: true},
		{name: "zero", claim: float64(0), wantErr: true},
		{name: "wrong type", claim: true, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := ContextWithClaims(context.Background(), jwt.MapClaims{"user_id": tt.claim})
			id, err := GetUserIDFromContext(ctx)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}

	_, err := GetUserIDFromContext(context.Background())
	assert.Error(t, err)
}
