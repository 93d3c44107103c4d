package internal

import (
	"fmt"
	"time"
)

type Config struct {
	Host           string `env:"HOST,default=localhost"`
	Port           int    `env:"PORT,default=8080"`
	LogLevel       string `env:"LOG_LEVEL,default=INFO"`
	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	AttachmentDir  string `env:"ATTACHMENT_DIR,required=true"`
	JWTSecret      string `env:"JWT_SECRET,required=true"`

	AuthTimeout          time.Duration `env:"AUTH_TIMEOUT,default=5s"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=256"`
	MaxConsecutiveDrops  int           `env:"MAX_CONSECUTIVE_DROPS,default=8"`
	ReceiptWorkers       int           `env:"RECEIPT_WORKERS,default=4"`
	ReceiptBufferSize    int           `env:"RECEIPT_BUFFER_SIZE,default=1024"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	MetricInterval       time.Duration `env:"METRIC_INTERVAL,default=30s"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`

	LimitMessages   int    `env:"LIMIT_MESSAGES,default=50"`
	CensorCharacter string `env:"CENSOR_CHARACTER,default=*"`
}

// CharacterRune converts the single-character censor setting into the
// rune the moderator replaces blocked spans with.
func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf("CENSOR_CHARACTER must be a single character, got %q", str)
	}
	return r[0], nil
}
