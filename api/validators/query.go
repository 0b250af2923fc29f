package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// ParseLang reads the ?lang= parameter, falling back to the Accept-Language header.
func ParseLang(r *http.Request) string {
	if lang := SanitizeString(r.URL.Query().Get("lang"), 35); lang != "" {
		return lang
	}
	header := r.Header.Get("Accept-Language")
	if i := strings.IndexAny(header, ",;"); i >= 0 {
		header = header[:i]
	}
	return SanitizeString(header, 35)
}
