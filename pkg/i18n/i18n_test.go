package i18n_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pravodoc/pravodoc-backend/pkg/i18n"
)

func TestLocalizer_T(t *testing.T) {
	tests := []struct {
		name   string
		locale string
		key    string
		params map[string]string
		want   string
	}{
		{"russian default", "", "errors.rate_limited", nil, "Слишком много запросов, попробуйте позже"},
		{"english", i18n.LocaleEnglish, "errors.not_found", map[string]string{"resource": "job"}, "job not found"},
		{"unknown locale falls back", "de", "errors.forbidden", nil, "Доступ запрещён"},
		{"missing key returns key", i18n.LocaleEnglish, "nope.missing", nil, "nope.missing"},
		{"nested non-leaf returns key", i18n.LocaleRussian, "errors", nil, "errors"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := i18n.NewLocalizer(tt.locale)
			assert.Equal(t, tt.want, l.T(tt.key, tt.params))
		})
	}
}

func TestParseAcceptLanguage(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", i18n.LocaleRussian},
		{"en-US,en;q=0.9", i18n.LocaleEnglish},
		{"ru-RU,ru;q=0.9,en;q=0.8", i18n.LocaleRussian},
		{"en;q=0.5,ru;q=0.9", i18n.LocaleRussian},
		{"!!!", i18n.LocaleRussian},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, i18n.ParseAcceptLanguage(tt.header))
		})
	}
}

func TestMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		target string
		header string
		want   string
	}{
		{"no preference", "/", "", i18n.LocaleRussian},
		{"accept language", "/", "en-GB", i18n.LocaleEnglish},
		{"query wins over header", "/?lang=ru", "en-GB", i18n.LocaleRussian},
		{"query only", "/?lang=en", "", i18n.LocaleEnglish},
		{"unsupported query", "/?lang=de", "en", i18n.LocaleRussian},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := i18n.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = i18n.GetLocaleFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Accept-Language", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, rec.Header().Get("Content-Language"))
		})
	}
}

func TestTFromContext(t *testing.T) {
	ctx := i18n.WithLocale(context.Background(), i18n.LocaleEnglish)
	assert.Equal(t, "Token has expired", i18n.TFromContext(ctx, "errors.token_expired"))
	assert.Equal(t, "Срок действия токена истёк", i18n.TFromContext(context.Background(), "errors.token_expired"))
}
