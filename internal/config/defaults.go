package config

const (
	defaultLogFormat   = "console"
	defaultLogLevel    = "info"
	defaultPreset      = "prev"
	defaultIntraPeriod = 60
	defaultHistory     = 16
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		Encoder: Encoder{
			IntraPeriod: defaultIntraPeriod,
			Preset:      defaultPreset,
			History:     defaultHistory,
		},
	}
}
