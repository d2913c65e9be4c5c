package tsugite

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/ulikunitz/xz"
)

// Segment is one contiguous region of the target binary as described by the
// splitter: a content kind, an optional object path produced for it, and the
// ordered source files it is built from.
type Segment struct {
	Kind    string   `json:"kind"`
	Object  string   `json:"object,omitempty"`
	Sources []string `json:"sources"`
}

// segmentDoc is the document the splitter writes: the declared artifact
// basename plus the ordered segment list.
type segmentDoc struct {
	Basename string    `json:"basename"`
	Segments []Segment `json:"segments"`
}

// ruleKind is the build rule a segment is assigned by the classifier.
type ruleKind int

const (
	ruleNone ruleKind = iota
	ruleAs
	ruleCc
	ruleCpp
)

func (r ruleKind) String() string {
	switch r {
	case ruleAs:
		return "as"
	case ruleCc:
		return "cc"
	case ruleCpp:
		return "cpp"
	}
	return "none"
}

// errNotBuildable marks virtual segments (kind prefixed with "."); their
// bytes are emitted as part of a sibling segment's object.
var errNotBuildable = errors.New("segment is not independently built")

// classifySegment maps a segment kind tag to its build rule. The kind set is
// closed: anything unrecognized means part of the binary would silently not
// be reproduced, so it is an error, never a fallthrough.
func classifySegment(kind string) (ruleKind, error) {
	if strings.HasPrefix(kind, ".") {
		return ruleNone, errNotBuildable
	}
	switch kind {
	case "asm", "data", "databin", "rodatabin", "textbin", "bin":
		return ruleAs, nil
	case "c":
		return ruleCc, nil
	case "cpp":
		return ruleCpp, nil
	default:
		return ruleNone, fmt.Errorf("unsupported build segment kind %q", kind)
	}
}

// loadSegments reads the splitter's segment document. Large segment lists
// compress well, so .gz, .xz and .zst documents are accepted transparently.
func loadSegments(path string) (*segmentDoc, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open segment list %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	switch {
	case strings.HasSuffix(path, ".gz"):
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader for %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	case strings.HasSuffix(path, ".xz"):
		xr, err := xz.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to create xz reader for %s: %w", path, err)
		}
		r = xr
	case strings.HasSuffix(path, ".zst"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd reader for %s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	}

	var doc segmentDoc
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse segment list %s: %w", path, err)
	}
	return &doc, nil
}
