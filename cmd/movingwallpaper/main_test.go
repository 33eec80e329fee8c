package main

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/genricoloni/movingwallpaper/internal/logging"
	"go.uber.org/fx"
)

// TestAppGraphValidity verifies that the dependency graph is resolvable.
// This test will fail if a constructor needs a type nothing provides.
func TestAppGraphValidity(t *testing.T) {
	err := fx.ValidateApp(
		AppOptions,
		fx.Provide(func() fyne.App { return test.NewTempApp(t) }),
	)

	if err != nil {
		t.Errorf("Dependency graph is not valid: %v", err)
	}
}

// TestNewLogger verifies the logger used by the graph can be built
func TestNewLogger(t *testing.T) {
	t.Setenv("MOVINGWALLPAPER_LOG_DIR", t.TempDir())

	logger, err := logging.NewLogger()
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	if logger == nil {
		t.Fatal("Logger should not be nil")
	}
	logger.Info("Test logger initialization")
}
