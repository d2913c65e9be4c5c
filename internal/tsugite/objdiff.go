package tsugite

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const objdiffSchema = "https://raw.githubusercontent.com/encounter/objdiff/main/config.schema.json"

// Globs objdiff watches for rebuild triggers.
var watchPatterns = []string{
	"src/**/*.c",
	"src/**/*.cp",
	"src/**/*.cpp",
	"src/**/*.cxx",
	"src/**/*.h",
	"src/**/*.hp",
	"src/**/*.hpp",
	"src/**/*.hxx",
	"src/**/*.s",
	"src/**/*.S",
	"src/**/*.asm",
	"src/**/*.inc",
	"src/**/*.py",
	"src/**/*.yml",
	"src/**/*.txt",
	"src/**/*.json",
}

type unitMetadata struct {
	ProgressCategories []string `json:"progress_categories"`
}

// manifestUnit describes one dual-built translation unit to the diff tool:
// the work-in-progress object (base) against the faithfully built one (target).
type manifestUnit struct {
	Name       string       `json:"name"`
	BasePath   string       `json:"base_path"`
	TargetPath string       `json:"target_path"`
	Metadata   unitMetadata `json:"metadata"`
}

type progressCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type objdiffConfig struct {
	Schema             string             `json:"$schema"`
	CustomMake         string             `json:"custom_make"`
	CustomArgs         []string           `json:"custom_args"`
	BuildTarget        bool               `json:"build_target"`
	BuildBase          bool               `json:"build_base"`
	WatchPatterns      []string           `json:"watch_patterns"`
	Units              []manifestUnit     `json:"units"`
	ProgressCategories []progressCategory `json:"progress_categories"`
}

// newManifestUnit records the correspondence for one diff-mode segment.
// Only objects under the dual-build root are tracked; ok is false otherwise.
func newManifestUnit(seg Segment, targetPath string) (manifestUnit, bool, error) {
	if !pathHasComponent(targetPath, TargetDir) {
		return manifestUnit{}, false, nil
	}

	var src string
	if len(seg.Sources) > 0 {
		src = filepath.ToSlash(seg.Sources[0])
	}

	// Canonical unit name: the source path with the asm/ or src/ structural
	// prefix dropped and the extension stripped, so the same logical unit
	// matches whether it was built from hand-written source or generated asm.
	var name string
	if src != "" {
		rel := src
		parts := strings.Split(src, "/")
		if parts[0] == AsmDir || parts[0] == SrcDir {
			rel = strings.Join(parts[1:], "/")
		}
		name = strings.TrimSuffix(rel, filepath.Ext(rel))
	} else {
		name = strings.TrimSuffix(filepath.Base(seg.Object), filepath.Ext(seg.Object))
	}

	category, err := segmentCategory(seg, src)
	if err != nil {
		return manifestUnit{}, false, err
	}

	unit := manifestUnit{
		Name:       name,
		BasePath:   seg.Object,
		TargetPath: targetPath,
		Metadata:   unitMetadata{ProgressCategories: []string{category}},
	}

	// When a hand-written source with the same stem exists anywhere under the
	// source tree, the base object is built from it under build/obj/src
	// rather than from the plain build location.
	if hasHandWrittenSource(filepath.Base(name)) {
		unit.BasePath = replacePathComponent(targetPath, TargetDir, filepath.Join(OutDir, "obj", SrcDir))
	}

	return unit, true, nil
}

// segmentCategory derives the progress category from the segment's
// provenance: the tracked source tree is "game", the disassembled binary-data
// subtree is "data". Anything else means the splitter produced a segment this
// tool does not understand.
func segmentCategory(seg Segment, src string) (string, error) {
	switch {
	case strings.HasPrefix(src, SrcDir+"/"):
		return "game", nil
	case strings.HasPrefix(src, AsmDir+"/data/"):
		return "data", nil
	}
	return "", fmt.Errorf("segment %s: source %q is neither under %s/ nor %s/data/", seg.Object, src, SrcDir, AsmDir)
}

// hasHandWrittenSource reports whether a .c or .cpp file with the given stem
// exists anywhere under the source tree.
func hasHandWrittenSource(stem string) bool {
	found := false
	filepath.WalkDir(SrcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		base := d.Name()
		if base == stem+".c" || base == stem+".cpp" {
			found = true
			return fs.SkipAll
		}
		return nil
	})
	return found
}

func pathHasComponent(path, component string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == component {
			return true
		}
	}
	return false
}

// replacePathComponent replaces the first path component exactly equal to old
// with repl. Comparison is per component after structural splitting; a
// filename that merely contains old as a substring is left alone.
func replacePathComponent(path, old, repl string) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	for i, part := range parts {
		if part == old {
			parts[i] = filepath.ToSlash(repl)
			break
		}
	}
	return strings.Join(parts, "/")
}

// marshalObjdiffConfig serializes the manifest document consumed by objdiff.
func marshalObjdiffConfig(units []manifestUnit) ([]byte, error) {
	if units == nil {
		units = []manifestUnit{}
	}
	cfg := objdiffConfig{
		Schema:        objdiffSchema,
		CustomMake:    "ninja",
		CustomArgs:    []string{},
		BuildTarget:   false,
		BuildBase:     true,
		WatchPatterns: watchPatterns,
		Units:         units,
		ProgressCategories: []progressCategory{
			{ID: "game", Name: "Main"},
			{ID: "data", Name: "Data"},
		},
	}
	return json.MarshalIndent(cfg, "", "  ")
}

func writeObjdiffConfig(path string, units []manifestUnit) error {
	data, err := marshalObjdiffConfig(units)
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
