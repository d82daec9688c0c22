// Package config provides XML-based configuration management for the
// voucher service, with optional .env and environment overrides.
package config

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/bytes"
)

// DefaultConfigFile is the file created next to the binary on first run.
const DefaultConfigFile = "ValesResguardo.config"

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"ValesResguardo"`

	Server     ServerConfig     `xml:"Server"`
	Storage    StorageConfig    `xml:"Storage"`
	Processing ProcessingConfig `xml:"Processing"`
	Document   DocumentConfig   `xml:"Document"`
	Advanced   AdvancedConfig   `xml:"Advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `xml:"Port"`
	BindAddress  string `xml:"BindAddress"`
	EnableCORS   bool   `xml:"EnableCORS"`
	AllowOrigins string `xml:"AllowOrigins"`
	ReadTimeout  int    `xml:"ReadTimeoutSeconds"`
	WriteTimeout int    `xml:"WriteTimeoutSeconds"`
	IdleTimeout  int    `xml:"IdleTimeoutSeconds"`
	BodyLimit    string `xml:"BodyLimit"`
}

// StorageConfig contains upload settings
type StorageConfig struct {
	MaxUploadSize    string `xml:"MaxUploadSize"`    // raw upload, e.g. "50M"
	MaxExtractedSize string `xml:"MaxExtractedSize"` // after .gz/.xz decompression
	AllowedFileTypes string `xml:"AllowedFileTypes"`
}

// ProcessingConfig contains session and batch settings
type ProcessingConfig struct {
	MaxSessions            int  `xml:"MaxSessions"`
	SessionTimeoutMinutes  int  `xml:"SessionTimeoutMinutes"`
	KeepAliveMinutes       int  `xml:"KeepAliveMinutes"`
	CleanupIntervalMinutes int  `xml:"CleanupIntervalMinutes"`
	EnableCompression      bool `xml:"EnableCompression"`
	CompressionLevel       int  `xml:"CompressionLevel"`
}

// DocumentConfig contains voucher rendering settings
type DocumentConfig struct {
	AssetDirectory     string `xml:"AssetDirectory"`
	HeaderAsset        string `xml:"HeaderAsset"`
	FooterAsset        string `xml:"FooterAsset"`
	MaxAssetWidth      int    `xml:"MaxAssetWidthPixels"`
	AssetCacheMinutes  int    `xml:"AssetCacheMinutes"` // 0 keeps loaded images until restart
	LayoutFile         string `xml:"LayoutFile"`
	AuthorizingOfficer string `xml:"AuthorizingOfficer"`
	AuthorizingTitle   string `xml:"AuthorizingTitle"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogLevel             string `xml:"LogLevel"`
	EnableRequestLogging bool   `xml:"EnableRequestLogging"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8089,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 120,
			IdleTimeout:  120,
			BodyLimit:    "64M",
		},
		Storage: StorageConfig{
			MaxUploadSize:    "50M",
			MaxExtractedSize: "200M",
			AllowedFileTypes: ".xlsx,.xls,.csv,.gz,.xz",
		},
		Processing: ProcessingConfig{
			MaxSessions:            20,
			SessionTimeoutMinutes:  30,
			KeepAliveMinutes:       5,
			CleanupIntervalMinutes: 5,
			EnableCompression:      true,
			CompressionLevel:       5,
		},
		Document: DocumentConfig{
			AssetDirectory:     "./assets",
			HeaderAsset:        "LOGOS_VALE.png",
			FooterAsset:        "Pie_vale.png",
			MaxAssetWidth:      1600,
			AssetCacheMinutes:  10,
			LayoutFile:         "",
			AuthorizingOfficer: "EDNA SANCHEZ MARTINEZ",
			AuthorizingTitle:   "Coordinadora Administrativa",
		},
		Advanced: AdvancedConfig{
			LogLevel:             "info",
			EnableRequestLogging: true,
		},
	}
}

// LoadConfig loads configuration from an XML file, creating it with the
// defaults when missing. A .env file next to the config is loaded first when
// present; variables already set in the environment win.
func LoadConfig(configPath string) (*AppConfig, error) {
	configDir := filepath.Dir(configPath)
	if err := loadEnvFile(filepath.Join(configDir, ".env")); err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := xml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply environment variable overrides
	config.applyEnvironmentOverrides()

	// Resolve relative paths
	config.resolvePaths(configDir)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func loadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed loading env file %s: %w", path, err)
	}
	return nil
}

// Save saves the configuration to XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(xml.Header + "\n<!-- Vales de Resguardo Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks values that would otherwise fail at runtime.
func (c *AppConfig) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if _, err := c.MaxUploadBytes(); err != nil {
		return err
	}
	if _, err := c.MaxExtractedBytes(); err != nil {
		return err
	}
	if c.Processing.CleanupIntervalMinutes <= 0 {
		return fmt.Errorf("invalid cleanup interval %d", c.Processing.CleanupIntervalMinutes)
	}
	if c.Processing.CompressionLevel < -1 || c.Processing.CompressionLevel > 9 {
		return fmt.Errorf("invalid compression level %d", c.Processing.CompressionLevel)
	}
	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if dir := os.Getenv("ASSET_DIR"); dir != "" {
		c.Document.AssetDirectory = dir
	}
	if layout := os.Getenv("LAYOUT_FILE"); layout != "" {
		c.Document.LayoutFile = layout
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Advanced.LogLevel = level
	}
	if officer := os.Getenv("AUTHORIZING_OFFICER"); officer != "" {
		c.Document.AuthorizingOfficer = officer
	}
	if title := os.Getenv("AUTHORIZING_TITLE"); title != "" {
		c.Document.AuthorizingTitle = title
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	if c.Document.AssetDirectory != "" && !filepath.IsAbs(c.Document.AssetDirectory) {
		c.Document.AssetDirectory = filepath.Join(configDir, c.Document.AssetDirectory)
	}
	if c.Document.LayoutFile != "" && !filepath.IsAbs(c.Document.LayoutFile) {
		c.Document.LayoutFile = filepath.Join(configDir, c.Document.LayoutFile)
	}
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// MaxUploadBytes parses Storage.MaxUploadSize.
func (c *AppConfig) MaxUploadBytes() (int64, error) {
	return parseSize("MaxUploadSize", c.Storage.MaxUploadSize)
}

// MaxExtractedBytes parses Storage.MaxExtractedSize.
func (c *AppConfig) MaxExtractedBytes() (int64, error) {
	return parseSize("MaxExtractedSize", c.Storage.MaxExtractedSize)
}

func parseSize(field, value string) (int64, error) {
	if strings.TrimSpace(value) == "" {
		return 0, nil
	}
	n, err := bytes.Parse(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", field, value, err)
	}
	return n, nil
}

// AllowedExtensions returns the lower-cased upload extensions.
func (c *AppConfig) AllowedExtensions() []string {
	var exts []string
	for _, e := range strings.Split(c.Storage.AllowedFileTypes, ",") {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts = append(exts, e)
	}
	return exts
}

// SessionTimeout returns the idle age after which sessions are removed.
func (c *AppConfig) SessionTimeout() time.Duration {
	return time.Duration(c.Processing.SessionTimeoutMinutes) * time.Minute
}

// KeepAlive returns the window in which a touched session is never removed.
func (c *AppConfig) KeepAlive() time.Duration {
	return time.Duration(c.Processing.KeepAliveMinutes) * time.Minute
}

// AssetCacheTTL returns how long loaded header and footer images are reused.
func (c *AppConfig) AssetCacheTTL() time.Duration {
	return time.Duration(c.Document.AssetCacheMinutes) * time.Minute
}

// CleanupInterval returns how often idle sessions are swept.
func (c *AppConfig) CleanupInterval() time.Duration {
	return time.Duration(c.Processing.CleanupIntervalMinutes) * time.Minute
}
