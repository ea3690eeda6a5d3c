package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config agrupa toda la configuración que llega por variables de entorno.
// Ver .env.example para la lista completa.
type Config struct {
	Env  string // local | production
	Port string

	DatabaseURL string

	Auth0Domain       string
	Auth0ClientID     string
	Auth0ClientSecret string
	Auth0Audience     string
	Auth0CallbackURL  string

	// Orígenes permitidos para CORS (frontend). Separados por coma.
	AllowedOrigins []string
	FrontendURL    string

	LogLevel string
}

// Load lee la configuración desde el entorno.
// Carga .env si existe (dev); en producción las vars vienen del deploy.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Env:  getenv("APP_ENV", "local"),
		Port: getenv("PORT", "8080"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		Auth0Domain:       os.Getenv("AUTH0_DOMAIN"),
		Auth0ClientID:     os.Getenv("AUTH0_CLIENT_ID"),
		Auth0ClientSecret: os.Getenv("AUTH0_CLIENT_SECRET"),
		Auth0Audience:     os.Getenv("AUTH0_AUDIENCE"),

		FrontendURL: getenv("FRONTEND_URL", "http://localhost:3000"),

		LogLevel: getenv("LOG_LEVEL", "info"),
	}
	cfg.Auth0CallbackURL = getenv("AUTH0_CALLBACK_URL", cfg.FrontendURL+"/callback")

	origins := getenv("ALLOWED_ORIGINS", cfg.FrontendURL)
	for _, o := range strings.Split(origins, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	return cfg
}

// Auth0Configured indica si hay credenciales para verificar tokens reales.
// Sin esto el API corre en modo dev (header X-Debug-User-ID).
func (c Config) Auth0Configured() bool {
	return c.Auth0Domain != "" && c.Auth0ClientID != ""
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
