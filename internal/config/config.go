// Package config resolves the compiler settings from defaults, a YAML file and
// command-line flags.
package config

// Config holds all compiler settings.
type Config struct {
	Compiler CompilerConfig `yaml:"compiler"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// CompilerConfig holds the defaults a QC script cannot set itself.
type CompilerConfig struct {
	NormalBlendAngle float32 `yaml:"normal_blend_angle"` // degrees
	FlipTriangles    bool    `yaml:"flip_triangles"`
	KeepAllBones     bool    `yaml:"keep_all_bones"`
	BufferSize       int     `yaml:"buffer_size"` // bytes per output file
	OutputDir        string  `yaml:"output_dir"`  // replaces the directory of $modelname
	DumpProject      bool    `yaml:"dump_project"`
}

// LoggingConfig selects the logger level and optional log file.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns the settings used when nothing overrides them.
func Default() *Config {
	return &Config{
		Compiler: CompilerConfig{
			NormalBlendAngle: 2,
			BufferSize:       16 << 20,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}
