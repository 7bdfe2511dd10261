// Package config manages application configuration for the CRM API.
//
// The config package loads and validates configuration from environment
// variables. Malformed values fall back to the default; Validate reports
// every problem at once.
//
//	cfg, err := config.Load()
//	if err := cfg.Validate(); err != nil { ... }
//
// # Configuration Groups
//
//   - ServerConfig: port, timeouts, CORS origins, log level, proxy trust
//   - DatabaseConfig: driver (pgx or sqlite) and DSN
//   - JWTConfig: RS256 key paths, issuer, token lifetime
//   - RateLimitConfig: requests per fixed window (default 30 per 2s)
//   - IdempotencyConfig: outcome retention (default 24h)
//   - BootstrapConfig: the admin account created on first start
//
// # Environment Variables
//
//	SERVER_PORT              - HTTP server port (default: 8000)
//	LOG_LEVEL                - debug, info, warn or error
//	TRUST_PROXY_HEADERS      - key rate limits by X-Forwarded-For
//	DB_DRIVER                - pgx or sqlite (default: sqlite)
//	DATABASE_URL             - connection string
//	JWT_PRIVATE_KEY_PATH     - PEM private key used to sign tokens
//	JWT_PUBLIC_KEY_PATH      - PEM public key used to verify tokens
//	RATE_LIMIT_REQUESTS      - requests admitted per window
//	RATE_LIMIT_WINDOW        - window length
//	IDEMPOTENCY_TTL          - how long outcomes are replayed
//	BOOTSTRAP_ADMIN_PASSWORD - must be changed in production
package config
