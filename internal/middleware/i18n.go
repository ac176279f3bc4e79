// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/serramalhas/malhas-backend/internal/i18n"
)

func I18nMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := i18n.DefaultLanguage

		// Handle cases like "pt-BR,pt;q=0.9,en;q=0.8"
		if header := c.GetHeader("Accept-Language"); header != "" {
			first := strings.TrimSpace(strings.Split(strings.Split(header, ",")[0], ";")[0])
			if match := matchLanguage(first); match != "" {
				lang = match
			}
		}

		if override := c.Query("lang"); override != "" && i18n.IsSupported(override) {
			lang = override
		}

		c.Set("lang", lang)
		c.Next()
	}
}

// matchLanguage maps a language tag to a loaded locale, exact region first,
// then by base language ("pt" and "pt-PT" both select pt_BR).
func matchLanguage(tag string) string {
	tag = strings.ReplaceAll(tag, "-", "_")
	base := strings.SplitN(tag, "_", 2)[0]

	match := ""
	for _, supported := range i18n.GetSupportedLanguages() {
		if strings.EqualFold(supported, tag) {
			return supported
		}
		if match == "" && strings.EqualFold(strings.SplitN(supported, "_", 2)[0], base) {
			match = supported
		}
	}
	return match
}
