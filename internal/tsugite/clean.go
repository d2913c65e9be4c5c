package tsugite

import (
	"os"
)

// clean removes all products of the configure/build process. The generated
// linker script is addressable only once the basename is known; when it is
// not, the whole linker directory goes anyway.
func clean() {
	filesToClean := []string{
		StampFile,
		".ninja_log",
		"build.ninja",
		"objdiff.json",
	}
	if Basename != "" {
		filesToClean = append(filesToClean, ldScriptPath())
	}
	for _, filename := range filesToClean {
		if _, err := os.Stat(filename); err == nil {
			os.Remove(filename)
		}
	}

	os.RemoveAll(AsmDir)
	os.RemoveAll(LinkDir)
	os.RemoveAll(TargetDir)
	os.RemoveAll(OutDir)
}
