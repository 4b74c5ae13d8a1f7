package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Server
	Port        string
	Host        string
	Environment string

	// Database
	DatabaseURL string

	// JWT
	JWTSecret         string
	JWTExpiryHours    int
	RefreshExpiryDays int

	// Google sign-in (candidates)
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// Gemini AI (resume extraction)
	GeminiAPIKey               string
	GeminiModel                string
	GeminiTemperature          float32
	GeminiMaxRequestsPerMinute float32

	// SMTP
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string

	// Frontend
	FrontendURL string

	// PDF generation
	ChromePath string

	// Uploads
	UploadDir   string
	MaxUploadMB int

	// Verification and invitations
	VerificationCodeTTL     time.Duration
	VerificationMaxAttempts int
	ResendCooldown          time.Duration
	InvitationTTL           time.Duration

	// Background jobs
	CleanupSchedule string

	// Observability
	LogLevel       string
	LogFormat      string
	MetricsEnabled bool
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:                       GetEnv("PORT", "8080"),
		Host:                       GetEnv("HOST", "0.0.0.0"),
		Environment:                GetEnv("ENVIRONMENT", "development"),
		DatabaseURL:                GetEnv("DATABASE_URL", ""),
		JWTSecret:                  GetEnv("JWT_SECRET", ""),
		JWTExpiryHours:             GetEnvInt("JWT_EXPIRY_HOURS", 24),
		RefreshExpiryDays:          GetEnvInt("REFRESH_EXPIRY_DAYS", 7),
		GoogleClientID:             GetEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:         GetEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:          GetEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/api/v1/auth/google/callback"),
		GeminiAPIKey:               GetEnv("GEMINI_API_KEY", ""),
		GeminiModel:                GetEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiTemperature:          GetEnvFloat32("GEMINI_TEMPERATURE", 0.2),
		GeminiMaxRequestsPerMinute: GetEnvFloat32("GEMINI_MAX_REQUESTS_PER_MINUTE", 15),
		SMTPHost:                   GetEnv("SMTP_HOST", ""),
		SMTPPort:                   GetEnvInt("SMTP_PORT", 587),
		SMTPUsername:               GetEnv("SMTP_USERNAME", ""),
		SMTPPassword:               GetEnv("SMTP_PASSWORD", ""),
		SMTPFrom:                   GetEnv("SMTP_FROM", "no-reply@jobgenie.local"),
		SMTPFromName:               GetEnv("SMTP_FROM_NAME", "JobGenie"),
		FrontendURL:                GetEnv("FRONTEND_URL", "http://localhost:3000"),
		ChromePath:                 GetEnv("CHROME_PATH", ""),
		UploadDir:                  GetEnv("UPLOAD_DIR", "./uploads"),
		MaxUploadMB:                GetEnvInt("MAX_UPLOAD_MB", 5),
		VerificationCodeTTL:        GetEnvDuration("VERIFICATION_CODE_TTL", 15*time.Minute),
		VerificationMaxAttempts:    GetEnvInt("VERIFICATION_MAX_ATTEMPTS", 5),
		ResendCooldown:             GetEnvDuration("RESEND_COOLDOWN", time.Minute),
		InvitationTTL:              GetEnvDuration("INVITATION_TTL", 72*time.Hour),
		CleanupSchedule:            GetEnv("CLEANUP_SCHEDULE", "@hourly"),
		LogLevel:                   GetEnv("LOG_LEVEL", "INFO"),
		LogFormat:                  GetEnv("LOG_FORMAT", "json"),
		MetricsEnabled:             GetEnvBool("METRICS_ENABLED", true),
	}
}

// Validate reports every missing or malformed required setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if len(c.JWTSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 characters"))
	}
	if c.MaxUploadMB <= 0 {
		errs = append(errs, fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", c.MaxUploadMB))
	}
	if c.VerificationCodeTTL <= 0 {
		errs = append(errs, errors.New("VERIFICATION_CODE_TTL must be positive"))
	}
	if c.VerificationMaxAttempts <= 0 {
		errs = append(errs, errors.New("VERIFICATION_MAX_ATTEMPTS must be positive"))
	}
	if c.InvitationTTL <= 0 {
		errs = append(errs, errors.New("INVITATION_TTL must be positive"))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// IsGoogleOAuthEnabled returns true if Google sign-in is configured.
func (c *Config) IsGoogleOAuthEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// IsGeminiEnabled returns true if Gemini is configured.
func (c *Config) IsGeminiEnabled() bool {
	return c.GeminiAPIKey != ""
}

// IsSMTPEnabled returns true if an SMTP relay is configured.
func (c *Config) IsSMTPEnabled() bool {
	return c.SMTPHost != ""
}

// MaxUploadBytes returns the upload size limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// GetEnv returns the value of an environment variable or a default value.
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvInt returns the integer value of an environment variable or a default value.
func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// GetEnvFloat32 returns the float32 value of an environment variable or a default value.
func GetEnvFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

// GetEnvBool returns the boolean value of an environment variable or a default value.
func GetEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// GetEnvDuration returns a time.Duration parsed from an environment variable.
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// GetEnvSlice returns a slice from a comma-separated environment variable.
func GetEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return defaultValue
}
