package config

// Config holds the chat subsystem's runtime settings.
type Config struct {
	LogLevel     string `mapstructure:"log_level" yaml:"log_level"`
	ChannelsPath string `mapstructure:"channels_path" yaml:"channels_path"`
	ScriptDir    string `mapstructure:"script_dir" yaml:"script_dir"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		LogLevel:     "info",
		ChannelsPath: "configs/channels.yaml",
		ScriptDir:    "configs/scripts",
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.ChannelsPath != "" {
		c.ChannelsPath = other.ChannelsPath
	}
	if other.ScriptDir != "" {
		c.ScriptDir = other.ScriptDir
	}
}
