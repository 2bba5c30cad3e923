package sqlgen

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEligibilityColumns_Count(t *testing.T) {
	assert.Len(t, EligibilityColumns, 52)
	assert.Equal(t, "RULE_ID", EligibilityColumns[0])
	assert.Equal(t, "CLAWBACK_IND", EligibilityColumns[51])
}

func TestEligibility_ColumnOrderAndValues(t *testing.T) {
	b := NewBuilder(DefaultOptions())
	stmt, err := b.Eligibility(sampleRecord())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(stmt, "INSERT INTO PROMO_ELIGIBILITY_RULES ("+strings.Join(EligibilityColumns, ",")+") VALUES ("))
	assert.True(t, strings.HasSuffix(stmt, ");"))
	assert.Len(t, insertValues(t, stmt), len(EligibilityColumns))

	assert.Equal(t, "PROMO_ELIGIBILITY_RULES_SEQ.NEXTVAL", valueOf(t, stmt, "RULE_ID"))
	assert.Equal(t, "'P0472022'", valueOf(t, stmt, "PROMO_CODE"))
	assert.Equal(t, "to_date('2025-06-30 20:00:00','YYYY-MM-DD HH24:MI:SS')", valueOf(t, stmt, "PROMO_START_DATE"))
	assert.Equal(t, "to_date('2025-08-02 05:00:00','YYYY-MM-DD HH24:MI:SS')", valueOf(t, stmt, "PROMO_END_DATE"))
	assert.Equal(t, "sysdate", valueOf(t, stmt, "SYS_CREATION_DATE"))
	assert.Equal(t, "16086", valueOf(t, stmt, "OPERATOR_ID"))
	assert.Equal(t, "'CPO'", valueOf(t, stmt, "APPLICATION_ID"))
	assert.Equal(t, "'USRST'", valueOf(t, stmt, "DL_SERVICE_CODE"))
	assert.Equal(t, "'2022 Samsung Trade P30'", valueOf(t, stmt, "PROMO_DESCRIPTION"))
	assert.Equal(t, "24", valueOf(t, stmt, "PROMO_DURATION"))
	assert.Equal(t, "730", valueOf(t, stmt, "PROMO_AMOUNT"))
	assert.Equal(t, "to_date('2025-06-30 20:00:00','YYYY-MM-DD HH24:MI:SS')", valueOf(t, stmt, "EFFECTIVE_DATE"))
	assert.Equal(t, "to_date('2025-08-02 05:00:00','YYYY-MM-DD HH24:MI:SS')", valueOf(t, stmt, "EXPIRATION_DATE"))
	assert.Equal(t, "'*'", valueOf(t, stmt, "STORE_GRP_ID"))
	assert.Equal(t, "'https://c2.example.com/P0472022'", valueOf(t, stmt, "C2_LINK"))
	assert.Equal(t, "to_date('2025-07-01 20:00:00','YYYY-MM-DD HH24:MI:SS')", valueOf(t, stmt, "DISPLAY_PROMO_START_DATE"))
	assert.Equal(t, "to_date('2025-08-01 20:00:00','YYYY-MM-DD HH24:MI:SS')", valueOf(t, stmt, "DISPLAY_PROMO_END_DATE"))
	assert.Equal(t, "NULL", valueOf(t, stmt, "LIMIT_PER_BAN"))
	assert.Equal(t, "NULL", valueOf(t, stmt, "PR_DATE"))
}

func TestEligibility_DescriptionFallsBackToDescription(t *testing.T) {
	rec := sampleRecord()
	rec.BillFacingName = ""
	rec.Description = "Trade up and save"
	stmt, err := NewBuilder(DefaultOptions()).Eligibility(rec)
	require.NoError(t, err)
	assert.Equal(t, "'Trade up and save'", valueOf(t, stmt, "PROMO_DESCRIPTION"))
}

func TestEligibility_C2ReferenceUsesBaseURL(t *testing.T) {
	opts := DefaultOptions()
	opts.C2BaseURL = "https://c2.example.com/promos/"
	rec := sampleRecord()
	rec.C2Reference = "P0472022"
	stmt, err := NewBuilder(opts).Eligibility(rec)
	require.NoError(t, err)
	assert.Equal(t, "'https://c2.example.com/promos/P0472022'", valueOf(t, stmt, "C2_LINK"))

	rec.C2Reference = ""
	stmt, err = NewBuilder(opts).Eligibility(rec)
	require.NoError(t, err)
	assert.Equal(t, "NULL", valueOf(t, stmt, "C2_LINK"))
}

func TestEligibility_DecimalIsTruncated(t *testing.T) {
	rec := sampleRecord()
	rec.Amount = "730.99"
	stmt, err := NewBuilder(DefaultOptions()).Eligibility(rec)
	require.NoError(t, err)
	assert.Equal(t, "730", valueOf(t, stmt, "PROMO_AMOUNT"))
}

func TestEligibility_NonNumericIsValidationError(t *testing.T) {
	rec := sampleRecord()
	rec.PromoDuration = "twenty four"
	_, err := NewBuilder(DefaultOptions()).Eligibility(rec)
	require.Error(t, err)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "promo_duration", ve.Field)
}

func TestEligibility_OutOfRangeIntegerIsValidationError(t *testing.T) {
	rec := sampleRecord()
	rec.Amount = "1e30"
	_, err := NewBuilder(DefaultOptions()).Eligibility(rec)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "amount", ve.Field)

	tok, err := integerToken("limit_per_ban", "-9.3e18")
	assert.True(t, IsValidationError(err))
	assert.Empty(t, tok)

	tok, err = integerToken("limit_per_ban", "9007199254740992")
	require.NoError(t, err)
	assert.Equal(t, "9007199254740992", tok)
}

func TestEligibility_MalformedDateIsValidationError(t *testing.T) {
	rec := sampleRecord()
	rec.PromoEndDate = "08/01/2025"
	_, err := NewBuilder(DefaultOptions()).Eligibility(rec)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "promo_end_date", ve.Field)
}

func TestEligibility_MissingDatesAreNull(t *testing.T) {
	rec := sampleRecord()
	rec.PromoStartDate = ""
	rec.PromoEndDate = ""
	stmt, err := NewBuilder(DefaultOptions()).Eligibility(rec)
	require.NoError(t, err)
	assert.Equal(t, "NULL", valueOf(t, stmt, "PROMO_START_DATE"))
	assert.Equal(t, "NULL", valueOf(t, stmt, "DISPLAY_PROMO_END_DATE"))
}

func TestEligibility_RequiresCode(t *testing.T) {
	rec := sampleRecord()
	rec.Code = " "
	_, err := NewBuilder(DefaultOptions()).Eligibility(rec)
	assert.True(t, IsValidationError(err))
}
