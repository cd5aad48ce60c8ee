package service

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
)

func TestNormalizeDate(t *testing.T) {
	cases := map[string]struct {
		in   string
		want string
		ok   bool
	}{
		"plain":           {"2024-03-01", "2024-03-01", true},
		"iso datetime":    {"2024-03-01T10:20:30Z", "2024-03-01", true},
		"space datetime":  {" 2024-03-01 10:20:30", "2024-03-01", true},
		"not a real day":  {"2024-02-30", "", false},
		"wrong separator": {"2024/03/01", "", false},
		"empty":           {"", "", false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, ok := NormalizeDate(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseDateRange(t *testing.T) {
	_, _, err := parseDateRange("fromDate", "2024-03-05", "toDate", "2024-03-01")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidRange.Code, appErrors.FromError(err).Code)

	_, _, err = parseDateRange("fromDate", "03/05/2024", "toDate", "2024-03-01")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidFormat.Code, appErrors.FromError(err).Code)

	start, end, err := parseDateRange("fromDate", "2024-03-01", "toDate", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, start, end)
}

func TestAttendancePercentage(t *testing.T) {
	assert.Equal(t, 0.0, attendancePercentage(0, 0))
	assert.Equal(t, 66.67, attendancePercentage(2, 1))
	assert.Equal(t, 100.0, attendancePercentage(4, 0))
	assert.Equal(t, 0.0, attendancePercentage(0, 3))
}

func TestAddDaysAndTruncate(t *testing.T) {
	assert.Equal(t, "2024-03-01", addDays("2024-02-29", 1))
	assert.Equal(t, "2024-02-24", addDays("2024-03-01", -6))
	assert.Equal(t, "abc", truncate("abcdef", 3))
	assert.Equal(t, "ab", truncate("ab", 3))
}

func TestRegisteredValidators(t *testing.T) {
	v := validator.New()
	registerValidators(v)
	type payload struct {
		Date string `validate:"date_only"`
		Role string `validate:"user_role"`
	}
	require.NoError(t, v.Struct(payload{Date: "2024-03-01", Role: "teacher"}))
	require.Error(t, v.Struct(payload{Date: "2024-13-01", Role: "teacher"}))
	require.Error(t, v.Struct(payload{Date: "2024-03-01", Role: "parent"}))
}

func TestValidationErrorListsFields(t *testing.T) {
	v := validator.New()
	registerValidators(v)
	type payload struct {
		Region string `validate:"required"`
		Date   string `validate:"date_only"`
	}
	err := validationError(v.Struct(payload{Date: "yesterday"}))

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, map[string]string{"Region": "required", "Date": "date_only"}, appErr.Fields)

	plain := appErrors.FromError(validationError(assert.AnError))
	assert.Empty(t, plain.Fields)
}
