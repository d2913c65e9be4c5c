package tsugite

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// Main is the CLI entrypoint.
func Main() {
	os.Exit(run())
}

func run() int {
	var (
		doClean      bool
		cleanOnly    bool
		skipChecksum bool
		diffMode     bool
		showVersion  bool
		confPath     string
	)
	flag.BoolVar(&doClean, "c", false, "Clean artifacts and build")
	flag.BoolVar(&doClean, "clean", false, "Clean artifacts and build")
	flag.BoolVar(&cleanOnly, "C", false, "Only clean artifacts")
	flag.BoolVar(&cleanOnly, "clean-only", false, "Only clean artifacts")
	flag.BoolVar(&skipChecksum, "s", false, "Skip the checksum step")
	flag.BoolVar(&skipChecksum, "skip-checksum", false, "Skip the checksum step")
	flag.BoolVar(&diffMode, "diff", false, "Create objdiff's configuration and build target object files")
	flag.BoolVar(&diffMode, "objdiff", false, "Create objdiff's configuration and build target object files")
	flag.BoolVar(&Debug, "debug", false, "Enable debug output")
	flag.BoolVar(&showVersion, "version", false, "Version information")
	flag.StringVar(&confPath, "conf", ConfigFile, "Path to the project conf file")
	flag.Parse()

	if showVersion {
		fmt.Printf("tsugite %s (%s)\n", version, buildDate)
		return 0
	}

	cfg, err := loadConfig(confPath)
	if err != nil {
		colError.Printf("Failed to read %s: %v\n", confPath, err)
		return 1
	}
	initConfig(cfg)

	// Let an interrupted splitter die cleanly instead of leaving the asm
	// tree half-written under the lock.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if doClean || cleanOnly {
		clean()
		if cleanOnly {
			return 0
		}
	}

	if err := withProjectLock(func() error {
		return configure(ctx, diffMode, skipChecksum)
	}); err != nil {
		colError.Printf("Error: %v\n", err)
		return 1
	}
	return 0
}

// configure runs one synthesis pass: split (if configured), classify and
// emit the build graph, write the diff manifest in diff mode, then patch the
// generated assembly for the branch erratum.
func configure(ctx context.Context, diffMode, skipChecksum bool) error {
	if err := runSplitter(ctx); err != nil {
		return err
	}

	doc, err := loadSegments(SegmentsFile)
	if err != nil {
		return err
	}
	if doc.Basename != "" {
		Basename = doc.Basename
	}
	if Basename == "" {
		return fmt.Errorf("no artifact basename declared in %s or TSUGITE_BASENAME", SegmentsFile)
	}

	f, err := os.Create("build.ninja")
	if err != nil {
		return fmt.Errorf("failed to create build.ninja: %w", err)
	}

	mode := modeNormal
	if diffMode {
		mode = modeDiff
	}
	units, err := synthesize(f, doc.Segments, mode, skipChecksum)
	if err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write build.ninja: %w", err)
	}

	if diffMode {
		if err := writeObjdiffConfig("objdiff.json", units); err != nil {
			return fmt.Errorf("failed to write objdiff.json: %w", err)
		}
	}

	if err := patchShortLoops(AsmDir); err != nil {
		return err
	}

	colArrow.Print("-> ")
	colSuccess.Printf("Configured %s (%d segments)\n", Basename, len(doc.Segments))
	return nil
}
