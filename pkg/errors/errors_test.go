package errors_test

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/pravodoc/pravodoc-backend/pkg/errors"
	"github.com/pravodoc/pravodoc-backend/pkg/i18n"
)

func TestFormat(t *testing.T) {
	t.Run("without missing fields", func(t *testing.T) {
		err := apperrors.Format("Пустой текст")

		assert.True(t, apperrors.IsFormat(err))
		assert.False(t, apperrors.IsRecognition(err))
		assert.Equal(t, "Пустой текст", err.Message)
		assert.Equal(t, http.StatusUnprocessableEntity, err.StatusCode)
		assert.Nil(t, err.Details)
	})

	t.Run("with missing fields", func(t *testing.T) {
		err := apperrors.Format("Не удалось определить поля", "серия", "номер")

		assert.Equal(t, "Не удалось определить поля: серия, номер", err.Message)
		assert.Equal(t, "серия, номер", err.Details["missing_fields"])
		assert.Contains(t, err.Localize(context.Background()), "серия, номер")
	})
}

func TestRecognition(t *testing.T) {
	err := apperrors.Recognition("Текст на изображении не найден")
	wrapped := fmt.Errorf("recognize: %w", err)

	assert.True(t, apperrors.IsRecognition(wrapped))

	var appErr *apperrors.AppError
	require.True(t, apperrors.As(wrapped, &appErr))
	assert.Equal(t, "RECOGNITION_ERROR", appErr.Code)
}

func TestAppError_Error(t *testing.T) {
	cause := stderrors.New("disk full")
	err := apperrors.Wrap(cause, "INTERNAL_ERROR", "cannot save", http.StatusInternalServerError)

	assert.Equal(t, "cannot save: disk full", err.Error())
	assert.True(t, stderrors.Is(err, cause))
}

func TestAppError_LocalizeWith(t *testing.T) {
	err := apperrors.NotFound("contract")

	en := err.LocalizeWith(i18n.NewLocalizer(i18n.LocaleEnglish))
	assert.Equal(t, "contract not found", en)

	plain := apperrors.New("X", "plain message", http.StatusTeapot)
	assert.Equal(t, "plain message", plain.LocalizeWith(i18n.NewLocalizer(i18n.LocaleRussian)))
}

func TestTooManyRequests(t *testing.T) {
	err := apperrors.TooManyRequests()
	assert.Equal(t, http.StatusTooManyRequests, err.StatusCode)
	assert.True(t, apperrors.Is(err, apperrors.ErrRateLimited))
}
