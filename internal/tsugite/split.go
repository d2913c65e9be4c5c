package tsugite

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"lukechampine.com/blake3"
)

// hashFile returns the BLAKE3 digest of a file, used to key the split stamp.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := blake3.New(32, nil)
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// runSplitter re-invokes the external splitter when configured. The stamp
// file records the digest of the splitter's config from the previous run so
// an unchanged config skips the (slow) re-split.
func runSplitter(ctx context.Context) error {
	if SplitCmd == "" {
		return nil
	}

	sum, err := hashFile(SplitConfig)
	if err != nil {
		return fmt.Errorf("failed to read splitter config %s: %w", SplitConfig, err)
	}

	if prev, err := os.ReadFile(StampFile); err == nil && strings.TrimSpace(string(prev)) == sum {
		if _, err := os.Stat(SegmentsFile); err == nil {
			debugf("splitter config unchanged, skipping split\n")
			return nil
		}
	}

	fields := strings.Fields(SplitCmd)
	colArrow.Print("-> ")
	colSuccess.Printf("Splitting: %s\n", SplitCmd)

	cmd := exec.CommandContext(ctx, fields[0], fields[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("splitter failed: %w", err)
	}

	if err := os.WriteFile(StampFile, []byte(sum+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write split stamp: %w", err)
	}
	return nil
}
