// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

LoadEnvFile reads a .env file into the environment first, so local
development does not need exported variables:

	_ = cliparse.LoadEnvFile(".env")

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: connection string (required)
  - DatabaseType: sqlite or postgres (default: sqlite)
  - TokenSalt: Secret for user token HMAC (required)
  - SessionTTL: comparison session lifetime (default: 30m)
  - CatalogURL, CatalogAPIKey: movie metadata lookup (optional)
  - PushURL, PushRate: push gateway and its rate limit (optional, default 20/s)
  - FanoutWorkers: notification workers (default: 4)

# Environment Variables

Flags fall back to environment variables:

	PORT           → -p
	DATABASE_URL   → -d
	DATABASE_TYPE  → -t
	TOKEN_SALT     → --token-salt
	SESSION_TTL    → --session-ttl
	CATALOG_URL    → --catalog-url
	PUSH_URL       → --push-url
	PUSH_RATE      → --push-rate
	FANOUT_WORKERS → --fanout-workers

CATALOG_API_KEY is only read from the environment.

CLI flags take precedence over environment variables.
*/
package cliparse
