package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/database/dbtest"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/karma"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/validation"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func adminKarmaApp(db *gorm.DB) *fiber.App {
	h := handlers.NewKarmaHandler(karma.NewLedger(db, nil), nil, validation.New())
	app := fiber.New()
	app.Post("/admin/karma", h.Adjust)
	return app
}

func postAdjust(t *testing.T, app *fiber.App, req dto.AdminKarmaAdjustRequest) (int, dto.KarmaBalanceResponse) {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)
	r := httptest.NewRequest("POST", "/admin/karma", bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(r, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out dto.KarmaBalanceResponse
	if resp.StatusCode == fiber.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}

func TestAdminAdjust_CreditsAndRefusesOverdraft(t *testing.T) {
	db := dbtest.Open(t, &models.User{}, &karma.Transaction{})
	u := models.User{DisplayName: "Seer", KarmaBalance: 10}
	require.NoError(t, db.Create(&u).Error)
	app := adminKarmaApp(db)

	status, bal := postAdjust(t, app, dto.AdminKarmaAdjustRequest{UserID: u.ID, Amount: 15, Reason: "gift"})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, int64(25), bal.Balance)

	status, _ = postAdjust(t, app, dto.AdminKarmaAdjustRequest{UserID: u.ID, Amount: -100, Reason: "typo"})
	assert.Equal(t, fiber.StatusPaymentRequired, status)
}

func TestAdminAdjust_HistoryFailureReportsCommittedBalance(t *testing.T) {
	db := dbtest.Open(t, &models.User{}) // no karma_transactions table
	u := models.User{DisplayName: "Seer", KarmaBalance: 10}
	require.NoError(t, db.Create(&u).Error)
	app := adminKarmaApp(db)

	status, bal := postAdjust(t, app, dto.AdminKarmaAdjustRequest{UserID: u.ID, Amount: 5, Reason: "gift"})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, int64(15), bal.Balance)

	var stored models.User
	require.NoError(t, db.First(&stored, "id = ?", u.ID).Error)
	assert.Equal(t, int64(15), stored.KarmaBalance)
}
