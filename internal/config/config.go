// Package config loads relay and client settings from the environment,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"SharedBoard/internal/state"
	"SharedBoard/internal/viewport"
)

// Config holds all application configuration
type Config struct {
	// Relay
	Port        int
	DBPath      string
	JWTSecret   string
	MDNSEnabled bool

	// Canvas and viewport
	CanvasWidth   int
	CanvasHeight  int
	ExpandMargin  int
	ExpandStep    int
	ViewWidth     int
	ViewHeight    int
	MinimapWidth  int
	MinimapHeight int

	UndoLimit int
}

// Load reads the optional env files (".env" when none are named) and then
// the environment. Variables already set win over file contents.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err == nil {
			files = []string{".env"}
		}
	}
	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return nil, fmt.Errorf("load env: %w", err)
		}
	}

	cfg := &Config{
		Port:          getEnvAsInt("PORT", 8888),
		DBPath:        getEnv("DB_PATH", "sharedboard.db"),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		MDNSEnabled:   getEnvAsBool("MDNS_ENABLED", true),
		CanvasWidth:   getEnvAsInt("CANVAS_WIDTH", 2000),
		CanvasHeight:  getEnvAsInt("CANVAS_HEIGHT", 1500),
		ExpandMargin:  getEnvAsInt("EXPAND_MARGIN", 80),
		ExpandStep:    getEnvAsInt("EXPAND_STEP", 500),
		ViewWidth:     getEnvAsInt("VIEW_WIDTH", 1280),
		ViewHeight:    getEnvAsInt("VIEW_HEIGHT", 720),
		MinimapWidth:  getEnvAsInt("MINIMAP_WIDTH", 200),
		MinimapHeight: getEnvAsInt("MINIMAP_HEIGHT", 150),
		UndoLimit:     getEnvAsInt("UNDO_LIMIT", 100),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	if c.CanvasWidth <= 0 || c.CanvasHeight <= 0 {
		errs = append(errs, errors.New("CANVAS_WIDTH and CANVAS_HEIGHT must be positive"))
	}
	if c.ExpandStep <= 0 {
		errs = append(errs, errors.New("EXPAND_STEP must be positive"))
	}
	if c.ExpandMargin < 0 {
		errs = append(errs, errors.New("EXPAND_MARGIN must not be negative"))
	}
	if c.ViewWidth <= 0 || c.ViewHeight <= 0 {
		errs = append(errs, errors.New("VIEW_WIDTH and VIEW_HEIGHT must be positive"))
	}
	if c.MinimapWidth <= 0 || c.MinimapHeight <= 0 {
		errs = append(errs, errors.New("MINIMAP_WIDTH and MINIMAP_HEIGHT must be positive"))
	}
	if c.UndoLimit <= 0 {
		errs = append(errs, errors.New("UNDO_LIMIT must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) Canvas() state.Size {
	return state.Size{Width: float64(c.CanvasWidth), Height: float64(c.CanvasHeight)}
}

func (c *Config) Viewport() viewport.Config {
	return viewport.Config{
		Visible: state.Size{Width: float64(c.ViewWidth), Height: float64(c.ViewHeight)},
		Margin:  float64(c.ExpandMargin),
		Step:    float64(c.ExpandStep),
	}
}

func (c *Config) Minimap() viewport.Minimap {
	return viewport.Minimap{Width: float64(c.MinimapWidth), Height: float64(c.MinimapHeight)}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
