package services_test

import (
	"context"
	"testing"

	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/database/dbtest"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterContent(t *testing.T) {
	ms := services.NewModerationService(nil)

	cases := map[string]string{
		"The Tower card warns of sudden change.": "",
		"what a load of bullshit":                services.RejectLanguage,
		"visit www.example.com today":            services.RejectURL,
		"call me 555-123-4567":                   services.RejectContactInfo,
		"write to seer@example.com":              services.RejectContactInfo,
		"wowwwwww":                               services.RejectSpam,
		"HELLO THERE FRIEND":                     services.RejectCaps,
	}
	for text, want := range cases {
		ok, reason := ms.FilterContent(text)
		assert.Equal(t, want == "", ok, text)
		assert.Equal(t, want, reason, text)
	}

	assert.Equal(t, "URLs and web links are not allowed.", ms.GetRejectionMessage(services.RejectURL))
	assert.NotEmpty(t, ms.GetRejectionMessage("unknown"))
}

func TestReportsAndBlocks(t *testing.T) {
	db := dbtest.Open(t, &models.Report{}, &models.Block{})
	ms := services.NewModerationService(db)
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()

	_, err := ms.CreateReport(ctx, a, &dto.CreateReportRequest{ContentType: "post", ContentID: "x", Reason: "spam"})
	assert.Error(t, err)

	report, err := ms.CreateReport(ctx, a, &dto.CreateReportRequest{ContentType: "fortune", ContentID: "abc", Reason: " rude "})
	require.NoError(t, err)
	assert.Equal(t, models.ReportPending, report.Status)
	assert.Equal(t, "rude", report.Reason)

	reports, total, err := ms.ListReports(ctx, models.ReportPending, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, reports, 1)

	require.NoError(t, ms.ActionReport(ctx, report.ID, &dto.ActionReportRequest{Status: models.ReportDismissed}))
	assert.ErrorIs(t, ms.ActionReport(ctx, uuid.New(), &dto.ActionReportRequest{Status: models.ReportDismissed}), services.ErrReportNotFound)

	assert.ErrorIs(t, ms.BlockUser(ctx, a, a), services.ErrSelfBlock)
	require.NoError(t, ms.BlockUser(ctx, a, b))
	assert.ErrorIs(t, ms.BlockUser(ctx, a, b), services.ErrAlreadyBlocked)

	ids, err := ms.GetBlockedIDs(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{b}, ids)

	require.NoError(t, ms.UnblockUser(ctx, a, b))
	ids, err = ms.GetBlockedIDs(ctx, a)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
