package config

import "flag"

// Flags are the command-line overrides. Register binds them to a FlagSet.
type Flags struct {
	Config      string
	WriteConfig string
	Debug       bool
	Flip        bool
	BlendAngle  float64
	KeepBones   bool
	LogFile     string
	OutputDir   string
}

// Register defines the flags on fs.
func (f *Flags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.StringVar(&f.WriteConfig, "write-config", "", "Write the effective config to `path` and exit")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging and dump the parsed project")
	fs.BoolVar(&f.Flip, "f", false, "Flip triangle winding")
	fs.Float64Var(&f.BlendAngle, "a", 0, "Normal blend `angle` in degrees")
	fs.BoolVar(&f.KeepBones, "b", false, "Keep all bones, even unreferenced ones")
	fs.StringVar(&f.LogFile, "log", "", "Also write the log to `file`")
	fs.StringVar(&f.OutputDir, "o", "", "Output `directory`")
}

func (f *Flags) apply(cfg *Config) {
	if f.Debug {
		cfg.Logging.Level = "debug"
		cfg.Compiler.DumpProject = true
	}
	if f.Flip {
		cfg.Compiler.FlipTriangles = true
	}
	if f.BlendAngle > 0 {
		cfg.Compiler.NormalBlendAngle = float32(f.BlendAngle)
	}
	if f.KeepBones {
		cfg.Compiler.KeepAllBones = true
	}
	if f.LogFile != "" {
		cfg.Logging.LogFile = f.LogFile
	}
	if f.OutputDir != "" {
		cfg.Compiler.OutputDir = f.OutputDir
	}
}
