package envutil

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/backofhouse-backend/internal/pkg/logger"
)

func lookup(key string, log *logger.Logger) (string, *logger.Logger, bool) {
	if log != nil {
		log = log.With("env_var", key)
	}
	val, ok := os.LookupEnv(key)
	if ok {
		val = strings.TrimSpace(val)
	}
	if !ok || val == "" {
		return "", log, false
	}
	return val, log, true
}

func String(key, defaultVal string, log *logger.Logger) string {
	val, log, ok := lookup(key, log)
	if !ok {
		if log != nil {
			log.Debug("Environment variable not found, using default", "default", defaultVal)
		}
		return defaultVal
	}
	return val
}

func Int(key string, defaultVal int, log *logger.Logger) int {
	val, log, ok := lookup(key, log)
	if !ok {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		if log != nil {
			log.Warn("Environment variable could not be parsed as int, using default", "provided", val, "default", defaultVal, "error", err)
		}
		return defaultVal
	}
	return i
}

func Float(key string, defaultVal float64, log *logger.Logger) float64 {
	val, log, ok := lookup(key, log)
	if !ok {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		if log != nil {
			log.Warn("Environment variable could not be parsed as float, using default", "provided", val, "default", defaultVal, "error", err)
		}
		return defaultVal
	}
	return f
}

func Bool(key string, defaultVal bool, log *logger.Logger) bool {
	val, log, ok := lookup(key, log)
	if !ok {
		return defaultVal
	}
	switch strings.ToLower(val) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	}
	if log != nil {
		log.Warn("Environment variable could not be parsed as bool, using default", "provided", val, "default", defaultVal)
	}
	return defaultVal
}

// Duration accepts Go duration strings ("2s", "1m30s") or a bare number of seconds.
func Duration(key string, defaultVal time.Duration, log *logger.Logger) time.Duration {
	val, log, ok := lookup(key, log)
	if !ok {
		return defaultVal
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	if log != nil {
		log.Warn("Environment variable could not be parsed as duration, using default", "provided", val, "default", defaultVal)
	}
	return defaultVal
}

// List splits a comma separated value, dropping empty entries.
func List(key string, defaultVal []string, log *logger.Logger) []string {
	val, _, ok := lookup(key, log)
	if !ok {
		return defaultVal
	}
	out := make([]string, 0)
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
