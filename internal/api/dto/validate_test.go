package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/eventra-app/admin-service/pkg/util/errorutil"
)

func TestValidateReportsJSONFieldNames(t *testing.T) {
	err := Validate(PremiumExtendRequest{UserID: "not-a-uuid", Months: 0})
	require.Error(t, err)

	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, apperrors.CodeValidation, domainErr.Code)
	fields := domainErr.Details["fields"].(map[string]any)
	assert.Equal(t, "uuid", fields["user_id"])
	assert.Equal(t, "required", fields["months"])
}

func TestValidateAcceptsGrant(t *testing.T) {
	err := Validate(PremiumGrantRequest{
		UserID:   "7c6f1f0e-0b7a-4a36-9d1f-3f0f8f6f2a10",
		PlanType: "monthly",
		Currency: "TRY",
	})
	assert.NoError(t, err)
}

func TestValidateRejectsNegativeAmount(t *testing.T) {
	err := Validate(PremiumGrantRequest{
		UserID:      "7c6f1f0e-0b7a-4a36-9d1f-3f0f8f6f2a10",
		PlanType:    "yearly",
		AmountMinor: -1,
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}
