package tsugite

import (
	"github.com/gookit/color"
)

// Global configuration state, assigned by initConfig from the conf file
// and TSUGITE_* environment overrides.
var (
	Basename     string
	OutDir       string
	LinkDir      string
	ConfigDir    string
	ToolsDir     string
	AsmDir       string
	SrcDir       string
	TargetDir    string
	SegmentsFile string
	SplitCmd     string
	SplitConfig  string
	Debug        bool
	ConfigFile   = "configs/tsugite.conf"
	LockFile     = ".tsugite.lock"
	StampFile    = ".tsugite"
	version      = "dev"     // overridden at build time
	buildDate    = "unknown" // overridden at build time

	// Toolchain command fragments, materialized by initConfig.
	crossPrefix   string
	includePaths  string
	compileCmdC   string
	compileCmdCpp string
)

// color helpers
var (
	colWarn    = color.Warn // style provided by gookit/color
	colError   = color.Error
	colSuccess = color.HEX("#1976D2")
	colArrow   = color.HEX("#FFEB3B")
)
