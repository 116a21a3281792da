package utils

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

type EnvValue interface {
	string | int | bool | time.Duration
}

func GetEnv[T EnvValue](envVar string, defaultValue T) T {
	envValue, ok := os.LookupEnv(envVar)
	if !ok || envValue == "" {
		return defaultValue
	}
	return parseEnv[T](envVar, envValue)
}

func GetRequiredEnv[T EnvValue](envVar string) T {
	envValue, ok := os.LookupEnv(envVar)
	if !ok || envValue == "" {
		log.Fatalf("%s environment variable is required", envVar)
	}
	return parseEnv[T](envVar, envValue)
}

func parseEnv[T EnvValue](envVar, envValue string) T {
	var out T
	switch ptr := any(&out).(type) {
	case *string:
		*ptr = envValue
	case *int:
		intValue, err := strconv.Atoi(envValue)
		if err != nil {
			panic(fmt.Sprintf("environment variable %s is not valid: '%s' is not an integer", envVar, envValue))
		}
		*ptr = intValue
	case *bool:
		boolValue, err := strconv.ParseBool(envValue)
		if err != nil {
			panic(fmt.Sprintf("environment variable %s is not valid: '%s' is not a boolean", envVar, envValue))
		}
		*ptr = boolValue
	case *time.Duration:
		durationValue, err := time.ParseDuration(envValue)
		if err != nil {
			panic(fmt.Sprintf("environment variable %s is not valid: '%s' is not a duration", envVar, envValue))
		}
		*ptr = durationValue
	}
	return out
}
