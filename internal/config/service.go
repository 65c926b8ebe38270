package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Service holds the environment-driven settings of the daemon
type Service struct {
	ConfigFile   string
	Device       string
	Port         int
	ReadingsFile string
	DatabaseURL  string
	AuthFile     string
	SecretsFile  string
	LogLevel     string
}

// LoadService reads the service settings from environment variables (optionally .env).
func LoadService() (Service, error) {
	_ = godotenv.Load() // ignore missing file

	svc := Service{
		ConfigFile:   "abfall.yaml",
		Device:       "Abfall",
		Port:         8080,
		ReadingsFile: "readings.json",
		SecretsFile:  DefaultSecretsFile,
		LogLevel:     "info",
	}

	if v := strings.TrimSpace(os.Getenv("ABFALL_CONFIG")); v != "" {
		svc.ConfigFile = v
	}
	if v := strings.TrimSpace(os.Getenv("ABFALL_DEVICE")); v != "" {
		svc.Device = v
	}
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 {
			return svc, fmt.Errorf("invalid PORT: %s", v)
		}
		svc.Port = port
	}
	if v := strings.TrimSpace(os.Getenv("READINGS_FILE")); v != "" {
		svc.ReadingsFile = v
	}
	if v := strings.TrimSpace(os.Getenv("SECRETS_FILE")); v != "" {
		svc.SecretsFile = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		svc.LogLevel = v
	}
	svc.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	svc.AuthFile = strings.TrimSpace(os.Getenv("AUTH_FILE"))

	return svc, nil
}

// ListenAddr returns the host:port string for the HTTP server.
func (s Service) ListenAddr() string {
	return fmt.Sprintf(":%d", s.Port)
}
