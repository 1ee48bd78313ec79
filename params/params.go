package params

import "time"

const (
	APIVersion                  = "1.0"
	APIPrefix                   = "/api/v1"
	ServerBodyLimit             = 1048576 // 1 MiB
	ServerIdleTimeout           = 30 * time.Second
	ServerReadTimeout           = 10 * time.Second
	ServerWriteTimeout          = 10 * time.Second
	HealthCheckServerAddr       = ":3001"          // health check server address
	DefaultPageSize             = 10               // page size when the query omits it
	MaxPageSize                 = 100              // upper bound accepted by list endpoints
	AccessTokenExpiration       = 30 * time.Minute // default jwt access token lifetime
	AccessTokenCookieName       = "access_token"
	PasswordMinLength           = 8
	ResetCodeLength             = 4                // digits in a password reset code
	ResetCodeExpiration         = 10 * time.Minute // reset code validity, also shown in the mail
	ResetCodeMaxAttempts        = 5                // wrong codes accepted before the code is discarded
	ResetCodeKeyPrefix          = "reset:"
	PasswordResetRateLimit      = 5 // requests per PasswordResetRateWindow per ip
	PasswordResetRateWindow     = 1 * time.Minute
	DatabaseSlowQueryThreshold  = 200 * time.Millisecond
	DefaultDatabaseMaxIdleConns = 10
	DefaultDatabaseMaxOpenConns = 50
)
