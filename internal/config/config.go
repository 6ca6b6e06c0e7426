// Package config loads the drawin runtime configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultConfigPath is the path to the canonical defaults file.
const DefaultConfigPath = "config/drawin.defaults.json"

const maxFileSize = 1 * 1024 * 1024 // 1MB

// Config is the root configuration. Every field is optional; the Get*
// methods supply the default for fields the file leaves out.
type Config struct {
	// HTTP
	Listen     *string `json:"listen,omitempty"`
	RequestLog *bool   `json:"request_log,omitempty"`

	// Storage
	DBPath          *string `json:"db_path,omitempty"`
	ExportDir       *string `json:"export_dir,omitempty"`
	SketchListLimit *int    `json:"sketch_list_limit,omitempty"`

	// Pen digitiser. An empty port disables serial input unless MockSerial
	// is set.
	SerialPort     *string `json:"serial_port,omitempty"`
	SerialBaudRate *int    `json:"serial_baud_rate,omitempty"`
	SerialDataBits *int    `json:"serial_data_bits,omitempty"`
	SerialStopBits *int    `json:"serial_stop_bits,omitempty"`
	SerialParity   *string `json:"serial_parity,omitempty"`
	MockSerial     *bool   `json:"mock_serial,omitempty"`
	MockInterval   *string `json:"mock_interval,omitempty"` // duration string like "20ms"

	TraceLog *bool `json:"trace_log,omitempty"`
}

func ptrString(v string) *string { return &v }
func ptrInt(v int) *int          { return &v }
func ptrBool(v bool) *bool       { return &v }

// DefaultConfig returns a Config with every field set to its default.
func DefaultConfig() *Config {
	return &Config{
		Listen:          ptrString(":8080"),
		RequestLog:      ptrBool(true),
		DBPath:          ptrString("drawin.db"),
		ExportDir:       ptrString("exports"),
		SketchListLimit: ptrInt(100),
		SerialPort:      ptrString(""),
		SerialBaudRate:  ptrInt(19200),
		SerialDataBits:  ptrInt(8),
		SerialStopBits:  ptrInt(1),
		SerialParity:    ptrString("N"),
		MockSerial:      ptrBool(false),
		MockInterval:    ptrString("20ms"),
		TraceLog:        ptrBool(false),
	}
}

// LoadConfig loads a Config from a JSON file. The file must have a .json
// extension and be at most 1MB. Omitted fields keep their defaults.
func LoadConfig(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the values that are set.
func (c *Config) Validate() error {
	if c.SerialBaudRate != nil && *c.SerialBaudRate <= 0 {
		return fmt.Errorf("serial_baud_rate must be positive, got %d", *c.SerialBaudRate)
	}
	if c.SerialDataBits != nil && (*c.SerialDataBits < 5 || *c.SerialDataBits > 8) {
		return fmt.Errorf("serial_data_bits must be between 5 and 8, got %d", *c.SerialDataBits)
	}
	if c.SerialStopBits != nil && *c.SerialStopBits != 1 && *c.SerialStopBits != 2 {
		return fmt.Errorf("serial_stop_bits must be 1 or 2, got %d", *c.SerialStopBits)
	}
	if c.SerialParity != nil {
		switch strings.ToUpper(*c.SerialParity) {
		case "N", "E", "O", "NONE", "EVEN", "ODD":
		default:
			return fmt.Errorf("invalid serial_parity %q", *c.SerialParity)
		}
	}
	if c.MockInterval != nil && *c.MockInterval != "" {
		d, err := time.ParseDuration(*c.MockInterval)
		if err != nil {
			return fmt.Errorf("invalid mock_interval '%s': %w", *c.MockInterval, err)
		}
		if d <= 0 {
			return fmt.Errorf("mock_interval must be positive, got %s", d)
		}
	}
	if c.SketchListLimit != nil && *c.SketchListLimit <= 0 {
		return fmt.Errorf("sketch_list_limit must be positive, got %d", *c.SketchListLimit)
	}
	return nil
}

func (c *Config) GetListen() string {
	if c.Listen == nil || *c.Listen == "" {
		return ":8080"
	}
	return *c.Listen
}

func (c *Config) GetRequestLog() bool {
	if c.RequestLog == nil {
		return true
	}
	return *c.RequestLog
}

func (c *Config) GetDBPath() string {
	if c.DBPath == nil || *c.DBPath == "" {
		return "drawin.db"
	}
	return *c.DBPath
}

func (c *Config) GetExportDir() string {
	if c.ExportDir == nil || *c.ExportDir == "" {
		return "exports"
	}
	return *c.ExportDir
}

func (c *Config) GetSketchListLimit() int {
	if c.SketchListLimit == nil {
		return 100
	}
	return *c.SketchListLimit
}

func (c *Config) GetSerialPort() string {
	if c.SerialPort == nil {
		return ""
	}
	return *c.SerialPort
}

func (c *Config) GetSerialBaudRate() int {
	if c.SerialBaudRate == nil {
		return 19200
	}
	return *c.SerialBaudRate
}

func (c *Config) GetSerialDataBits() int {
	if c.SerialDataBits == nil {
		return 8
	}
	return *c.SerialDataBits
}

func (c *Config) GetSerialStopBits() int {
	if c.SerialStopBits == nil {
		return 1
	}
	return *c.SerialStopBits
}

func (c *Config) GetSerialParity() string {
	if c.SerialParity == nil || *c.SerialParity == "" {
		return "N"
	}
	return *c.SerialParity
}

func (c *Config) GetMockSerial() bool {
	return c.MockSerial != nil && *c.MockSerial
}

// GetMockInterval parses MockInterval, falling back to 20ms.
func (c *Config) GetMockInterval() time.Duration {
	if c.MockInterval == nil || *c.MockInterval == "" {
		return 20 * time.Millisecond
	}
	d, err := time.ParseDuration(*c.MockInterval)
	if err != nil {
		return 20 * time.Millisecond
	}
	return d
}

func (c *Config) GetTraceLog() bool {
	return c.TraceLog != nil && *c.TraceLog
}
