package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/database/dbtest"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestJWTProtectedAndSession(t *testing.T) {
	cfg := &config.Config{JWTSecret: "secret"}
	app := fiber.New()
	app.Get("/me", middleware.JWTProtected(cfg), func(c *fiber.Ctx) error {
		id, err := middleware.GetUserID(c)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"id": id, "guest": middleware.IsGuest(c)})
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	userID := uuid.New()
	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+sign(t, "secret", jwt.MapClaims{
		"sub": userID.String(), "guest": true, "exp": time.Now().Add(time.Minute).Unix(),
	}))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+sign(t, "other", jwt.MapClaims{"sub": userID.String()}))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAdminRequired(t *testing.T) {
	db := dbtest.Open(t, &models.User{})
	admin := models.User{DisplayName: "Root", Role: models.RoleAdmin}
	plain := models.User{DisplayName: "Seer", Role: models.RoleUser}
	require.NoError(t, db.Create(&admin).Error)
	require.NoError(t, db.Create(&plain).Error)

	cfg := &config.Config{JWTSecret: "secret", AdminEmails: "boss@example.com", AdminToken: "tok"}
	app := fiber.New()
	app.Get("/admin", middleware.JWTProtected(cfg), middleware.AdminRequired(db, cfg), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	app.Get("/token-only", middleware.AdminRequired(db, cfg), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	call := func(claims jwt.MapClaims) int {
		req := httptest.NewRequest("GET", "/admin", nil)
		claims["exp"] = time.Now().Add(time.Minute).Unix()
		req.Header.Set("Authorization", "Bearer "+sign(t, "secret", claims))
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusNoContent, call(jwt.MapClaims{"sub": admin.ID.String()}))
	assert.Equal(t, fiber.StatusNoContent, call(jwt.MapClaims{"sub": uuid.NewString(), "email": "boss@example.com"}))
	assert.Equal(t, fiber.StatusForbidden, call(jwt.MapClaims{"sub": plain.ID.String(), "role": "admin"}))

	req := httptest.NewRequest("GET", "/token-only", nil)
	req.Header.Set("X-Admin-Token", "tok")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/token-only", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestJWTProtected_RejectsWrongAlgorithmAndSubject(t *testing.T) {
	cfg := &config.Config{JWTSecret: "secret"}
	app := fiber.New()
	app.Get("/me", middleware.JWTProtected(cfg), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	exp := time.Now().Add(time.Minute).Unix()

	call := func(token string) (int, string) {
		req := httptest.NewRequest("GET", "/me", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		var body dto.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return resp.StatusCode, body.Message
	}

	status, msg := call("")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Contains(t, msg, "missing")

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"sub": uuid.NewString(), "exp": exp,
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	status, _ = call(hs512)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, msg = call(sign(t, "secret", jwt.MapClaims{"sub": "not-an-account", "exp": exp}))
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Contains(t, msg, "no account")

	status, _ = call(sign(t, "secret", jwt.MapClaims{"sub": uuid.NewString(), "exp": exp}))
	assert.Equal(t, fiber.StatusNoContent, status)
}

func TestCORS_CredentialsOnlyForExplicitOrigins(t *testing.T) {
	corsGet := func(origins string) *http.Response {
		app := fiber.New()
		app.Use(middleware.CORS(&config.Config{CORSOrigins: origins}))
		app.Get("/api/health", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

		req := httptest.NewRequest("GET", "/api/health", nil)
		req.Header.Set("Origin", "https://fortune.example.com")
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	resp := corsGet("https://fortune.example.com")
	assert.Equal(t, "https://fortune.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, resp.Header.Get("Access-Control-Expose-Headers"), "X-Request-ID")

	resp = corsGet("*")
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Credentials"))
}
