package config

const (
	defaultSpoolDir       = "~/.local/share/fieldsync/spool"
	defaultLogDir         = "~/.local/share/fieldsync/logs"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultBucket         = "fieldsync"
	defaultPrefix         = "store_images"
	defaultUploadTimeout  = 300
	defaultRequestTimeout = 30
	defaultBatchSize      = 15
	defaultBackoffInitial = 30
	defaultBackoffMax     = 900
	defaultProbeInterval  = 30
)

// defaultUnmeteredPrefixes matches wired ethernet and wifi interface names.
// Cellular modems (wwan*, ppp*, rmnet*) are treated as metered.
var defaultUnmeteredPrefixes = []string{"eth", "en", "wlan", "wl"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			SpoolDir: defaultSpoolDir,
			LogDir:   defaultLogDir,
		},
		Storage: Storage{
			Bucket:         defaultBucket,
			Prefix:         defaultPrefix,
			UploadTimeout:  defaultUploadTimeout,
			RequestTimeout: defaultRequestTimeout,
		},
		Upload: Upload{
			BatchSize:      defaultBatchSize,
			BackoffInitial: defaultBackoffInitial,
			BackoffMax:     defaultBackoffMax,
		},
		Network: Network{
			RequireUnmetered:  true,
			UnmeteredPrefixes: append([]string(nil), defaultUnmeteredPrefixes...),
			ProbeInterval:     defaultProbeInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
