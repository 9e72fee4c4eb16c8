package config

import "fmt"

func RequireNonEmpty(value, envName string) error {
	if value == "" {
		return fmt.Errorf("missing required env %s", envName)
	}
	return nil
}

func RequireMinBytes(value []byte, min int, envName string) error {
	if len(value) < min {
		return fmt.Errorf("env %s must be at least %d bytes, got %d", envName, min, len(value))
	}
	return nil
}
