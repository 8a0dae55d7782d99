package common

import (
	"os"
	"strconv"
)

// GetEnv returns the value of an environment variable, or fallback when
// unset.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return fallback
}

// GetEnvInt returns an integer environment variable, or fallback when
// unset or unparseable.
func GetEnvInt(key string, fallback int) int {
	str := GetEnv(key, strconv.Itoa(fallback))
	val, err := strconv.Atoi(str)
	if err != nil {
		return fallback
	}

	return val
}
