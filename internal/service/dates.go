package service

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
)

// DateLayout is the calendar day format used across the API and storage.
const DateLayout = "2006-01-02"

var dateOnlyPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// NormalizeDate reduces an ISO date or datetime to YYYY-MM-DD and checks that
// it names a real calendar day.
func NormalizeDate(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if len(value) > 10 && (value[10] == 'T' || value[10] == ' ') {
		value = value[:10]
	}
	if !dateOnlyPattern.MatchString(value) {
		return "", false
	}
	if _, err := time.Parse(DateLayout, value); err != nil {
		return "", false
	}
	return value, true
}

func parseDateField(field, value string) (string, error) {
	date, ok := NormalizeDate(value)
	if !ok {
		return "", appErrors.Clone(appErrors.ErrInvalidFormat, fmt.Sprintf("%s must be a valid date in YYYY-MM-DD format", field))
	}
	return date, nil
}

func parseDateRange(fromField, from, toField, to string) (string, string, error) {
	start, err := parseDateField(fromField, from)
	if err != nil {
		return "", "", err
	}
	end, err := parseDateField(toField, to)
	if err != nil {
		return "", "", err
	}
	if start > end {
		return "", "", appErrors.Clone(appErrors.ErrInvalidRange, fmt.Sprintf("%s must be on or before %s", fromField, toField))
	}
	return start, end, nil
}

func formatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func addDays(date string, days int) string {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return date
	}
	return formatDate(t.AddDate(0, 0, days))
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

// attendancePercentage is present over present plus absent, rounded to two
// decimals. Late and leave are expected to be folded into present already.
func attendancePercentage(present, absent int) float64 {
	total := present + absent
	if total == 0 {
		return 0
	}
	return roundTo2(float64(present) / float64(total) * 100)
}

func truncate(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max])
}

// registerValidators installs the custom tags used by request structs.
func registerValidators(v *validator.Validate) {
	_ = v.RegisterValidation("date_only", func(fl validator.FieldLevel) bool {
		_, ok := NormalizeDate(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
		return models.UserRole(strings.ToLower(fl.Field().String())).Valid()
	})
}

// validationError reports each failed struct field with the rule it broke.
func validationError(err error) error {
	appErr := appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			appErr = appErr.WithField(fe.Field(), fe.Tag())
		}
	}
	return appErr
}

func internalError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
