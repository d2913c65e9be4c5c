package tsugite

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Config struct
type Config struct {
	Values map[string]string
}

// Load configs/tsugite.conf and apply defaults
func loadConfig(path string) (*Config, error) {
	cfg := &Config{Values: make(map[string]string)}

	// Attempt to read the file; a missing conf file just means defaults.
	file, err := os.Open(path)
	if err == nil {
		defer file.Close()
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}
			key := strings.TrimSpace(parts[0])
			val := strings.TrimSpace(parts[1])
			val = strings.Trim(val, `"'`)
			cfg.Values[key] = val
		}
		if err := scanner.Err(); err != nil {
			return cfg, err
		}
	}

	// Merge TSUGITE_* env overrides
	mergeEnvOverrides(cfg)

	return cfg, nil
}

// Merge TSUGITE_* env overrides
func mergeEnvOverrides(cfg *Config) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "TSUGITE_") {
			parts := strings.SplitN(env, "=", 2)
			if len(parts) == 2 {
				cfg.Values[parts[0]] = parts[1]
			}
		}
	}
}

func confValue(cfg *Config, key, def string) string {
	if v := cfg.Values[key]; v != "" {
		return v
	}
	return def
}

func initConfig(cfg *Config) {
	Basename = cfg.Values["TSUGITE_BASENAME"]

	OutDir = confValue(cfg, "TSUGITE_OUT_DIR", "build")
	LinkDir = confValue(cfg, "TSUGITE_LINK_DIR", "linkers")
	ConfigDir = confValue(cfg, "TSUGITE_CONFIG_DIR", "configs")
	ToolsDir = confValue(cfg, "TSUGITE_TOOLS_DIR", "tools")
	AsmDir = confValue(cfg, "TSUGITE_ASM_DIR", "asm")
	SrcDir = confValue(cfg, "TSUGITE_SRC_DIR", "src")
	TargetDir = confValue(cfg, "TSUGITE_TARGET_DIR", "target")

	SegmentsFile = confValue(cfg, "TSUGITE_SEGMENTS", filepath.Join(ConfigDir, "segments.json"))
	SplitCmd = cfg.Values["TSUGITE_SPLIT_CMD"]
	SplitConfig = confValue(cfg, "TSUGITE_SPLIT_CONFIG", filepath.Join(ConfigDir, "main.yaml"))

	crossPrefix = confValue(cfg, "TSUGITE_CROSS", "mips-linux-gnu-")
	includePaths = confValue(cfg, "TSUGITE_INCLUDES", "-Iinclude")

	ccDir := confValue(cfg, "TSUGITE_CC_DIR", filepath.Join(ToolsDir, "ee-gcc2.95.2-274", "bin"))
	flagsC := confValue(cfg, "TSUGITE_CFLAGS_C", "-x c")
	flagsCpp := confValue(cfg, "TSUGITE_CFLAGS_CPP", "-x c++ -fno-exceptions -G16")

	compileCmdC = fmt.Sprintf("%s -c %s %s", filepath.Join(ccDir, "ee-gcc.exe"), includePaths, flagsC)
	compileCmdCpp = fmt.Sprintf("%s -c %s %s", filepath.Join(ccDir, "ee-gcc.exe"), includePaths, flagsCpp)

	// The original compiler ships as a Windows binary; run it under wine elsewhere.
	if runtime.GOOS == "linux" {
		compileCmdC = "wine " + compileCmdC
		compileCmdCpp = "wine " + compileCmdCpp
	}

	if v := cfg.Values["TSUGITE_DEBUG"]; v == "1" || strings.EqualFold(v, "true") {
		Debug = true
	}
}

// Artifact paths derived from the basename declared by the splitter.

func ldScriptPath() string { return filepath.Join(LinkDir, Basename+".ld") }
func preElfPath() string   { return filepath.Join(OutDir, Basename+".elf") }
func elfPath() string      { return filepath.Join(OutDir, Basename) }
func mapPath() string      { return filepath.Join(OutDir, Basename+".map") }
func checksumPath() string { return filepath.Join(ConfigDir, "checksum.sha1") }
