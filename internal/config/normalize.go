package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeStorage()
	c.normalizeUpload()
	c.normalizeNetwork()
	c.normalizeDriver()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.SpoolDir) == "" {
		c.Paths.SpoolDir = defaultSpoolDir
	}
	if c.Paths.SpoolDir, err = expandPath(c.Paths.SpoolDir); err != nil {
		return fmt.Errorf("paths.spool_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeStorage() {
	c.Storage.Endpoint = strings.TrimSpace(c.Storage.Endpoint)
	if c.Storage.Endpoint == "" {
		if value, ok := os.LookupEnv("FIELDSYNC_ENDPOINT"); ok {
			c.Storage.Endpoint = strings.TrimSpace(value)
		}
	}
	c.Storage.Bucket = strings.TrimSpace(c.Storage.Bucket)
	if c.Storage.Bucket == "" {
		c.Storage.Bucket = defaultBucket
	}
	c.Storage.Prefix = strings.Trim(strings.TrimSpace(c.Storage.Prefix), "/")
	if c.Storage.AccessKey == "" {
		if value, ok := os.LookupEnv("FIELDSYNC_ACCESS_KEY"); ok {
			c.Storage.AccessKey = value
		}
	}
	if c.Storage.SecretKey == "" {
		if value, ok := os.LookupEnv("FIELDSYNC_SECRET_KEY"); ok {
			c.Storage.SecretKey = value
		}
	}
	if c.Storage.UploadTimeout <= 0 {
		c.Storage.UploadTimeout = defaultUploadTimeout
	}
	if c.Storage.RequestTimeout <= 0 {
		c.Storage.RequestTimeout = defaultRequestTimeout
	}
}

func (c *Config) normalizeUpload() {
	if c.Upload.BatchSize <= 0 {
		c.Upload.BatchSize = defaultBatchSize
	}
	if c.Upload.BackoffInitial <= 0 {
		c.Upload.BackoffInitial = defaultBackoffInitial
	}
	if c.Upload.BackoffMax <= 0 {
		c.Upload.BackoffMax = defaultBackoffMax
	}
}

func (c *Config) normalizeNetwork() {
	if len(c.Network.UnmeteredPrefixes) == 0 {
		c.Network.UnmeteredPrefixes = append([]string(nil), defaultUnmeteredPrefixes...)
	}
	trimmed := c.Network.UnmeteredPrefixes[:0]
	for _, prefix := range c.Network.UnmeteredPrefixes {
		if p := strings.TrimSpace(prefix); p != "" {
			trimmed = append(trimmed, p)
		}
	}
	c.Network.UnmeteredPrefixes = trimmed
	if c.Network.ProbeInterval <= 0 {
		c.Network.ProbeInterval = defaultProbeInterval
	}
}

func (c *Config) normalizeDriver() {
	c.Driver.UID = strings.TrimSpace(c.Driver.UID)
	c.Driver.Name = strings.TrimSpace(c.Driver.Name)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
