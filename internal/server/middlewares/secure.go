package middlewares

import (
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
)

// Secure sets the response hardening headers. HSTS and the https redirect are
// only enabled when the server terminates TLS itself.
func Secure(tls bool) gin.HandlerFunc {
	cfg := secure.Config{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		ReferrerPolicy:     "no-referrer",
		IENoOpen:           true,
	}

	if tls {
		cfg.SSLRedirect = true
		cfg.STSSeconds = 31536000
		cfg.STSIncludeSubdomains = true
		cfg.SSLProxyHeaders = map[string]string{"X-Forwarded-Proto": "https"}
	}

	return secure.New(cfg)
}
