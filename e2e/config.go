package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// SERVER_ADDR points at a running chat server, e.g. localhost:8080.
	// When empty the e2e suite skips itself.
	ServerAddr string `envconfig:"SERVER_ADDR"`
	// E2E_JWT_SECRET must match the server's JWT_SECRET so the suite
	// can mint its own participant tokens.
	JWTSecret string `envconfig:"E2E_JWT_SECRET" default:"e2e-secret"`
	// E2E_ROOM_ID names a room that already exists on the server, with
	// E2E_RECRUITER and E2E_CANDIDATE among its participants.
	RoomID    string `envconfig:"E2E_ROOM_ID" default:"e2e-room"`
	Recruiter string `envconfig:"E2E_RECRUITER" default:"recruiter-1"`
	Candidate string `envconfig:"E2E_CANDIDATE" default:"candidate-1"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
