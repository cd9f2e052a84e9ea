package migration

import (
	"strings"
	"time"

	"portfolio/backend/internal/config"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret: strings.Repeat("k", 32),
		Issuer: "portfolio",
		Expiry: time.Hour,
	}
}
