package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateUpload(); err != nil {
		return err
	}
	if err := c.validateNetwork(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateStorage() error {
	if c.Storage.Endpoint == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/fieldsync/config.toml"
		}
		return fmt.Errorf("storage.endpoint is required. Edit %s (create with 'fieldsync config init')", defaultPath)
	}
	if c.Storage.Bucket == "" {
		return errors.New("storage.bucket must be set")
	}
	return nil
}

func (c *Config) validateUpload() error {
	if c.Upload.BatchSize <= 0 {
		return errors.New("upload.batch_size must be positive")
	}
	if c.Upload.BackoffMax < c.Upload.BackoffInitial {
		return errors.New("upload.backoff_max must be >= upload.backoff_initial")
	}
	return nil
}

func (c *Config) validateNetwork() error {
	if c.Network.RequireUnmetered && len(c.Network.UnmeteredPrefixes) == 0 {
		return errors.New("network.unmetered_prefixes must list at least one interface prefix when network.require_unmetered is true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
