package i18n

import (
	"net/http"
)

// LangParam is the query parameter that overrides Accept-Language
const LangParam = "lang"

// Middleware stores the request locale in the context and echoes it in
// Content-Language. The lang query parameter wins over Accept-Language;
// anything unsupported falls back to Russian.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		locale := RequestLocale(r)
		w.Header().Set("Content-Language", locale)
		next.ServeHTTP(w, r.WithContext(WithLocale(r.Context(), locale)))
	})
}

// RequestLocale picks the locale for r
func RequestLocale(r *http.Request) string {
	if lang := r.URL.Query().Get(LangParam); lang != "" {
		return ParseAcceptLanguage(lang)
	}
	return ParseAcceptLanguage(r.Header.Get("Accept-Language"))
}
