package service

import (
	"os"
	"testing"
)

func TestMain(m *testing.M) {
	// Config loads lazily; mark the environment so DATABASE_URL is not required
	os.Setenv("ENVIRONMENT", "test")
	os.Exit(m.Run())
}
