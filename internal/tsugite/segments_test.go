package tsugite

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/ulikunitz/xz"
)

func TestClassifySegment(t *testing.T) {
	cases := []struct {
		kind string
		want ruleKind
	}{
		{"asm", ruleAs},
		{"data", ruleAs},
		{"databin", ruleAs},
		{"rodatabin", ruleAs},
		{"textbin", ruleAs},
		{"bin", ruleAs},
		{"c", ruleCc},
		{"cpp", ruleCpp},
	}
	for _, c := range cases {
		got, err := classifySegment(c.kind)
		if err != nil {
			t.Errorf("classifySegment(%q) returned error: %v", c.kind, err)
			continue
		}
		if got != c.want {
			t.Errorf("classifySegment(%q) = %v, want %v", c.kind, got, c.want)
		}
	}
}

func TestClassifySegmentVirtual(t *testing.T) {
	for _, kind := range []string{".data", ".rodata", ".bss"} {
		if _, err := classifySegment(kind); err != errNotBuildable {
			t.Errorf("classifySegment(%q) = %v, want errNotBuildable", kind, err)
		}
	}
}

func TestClassifySegmentUnknown(t *testing.T) {
	_, err := classifySegment("lz77")
	if err == nil {
		t.Fatal("classifySegment accepted an unknown kind")
	}
	if !strings.Contains(err.Error(), "lz77") {
		t.Errorf("error %q does not name the offending kind", err)
	}
}

const segmentsJSON = `{
  "basename": "SCES_512.48",
  "segments": [
    {"kind": "c", "object": "build/src/main.c.o", "sources": ["src/main.c"]},
    {"kind": "data", "object": "build/asm/data/tbl.s.o", "sources": ["asm/data/tbl.s"]},
    {"kind": ".rodata", "sources": ["src/main.c"]}
  ]
}`

func TestLoadSegments(t *testing.T) {
	dir := t.TempDir()

	write := func(name string, compress func(f *os.File)) string {
		path := filepath.Join(dir, name)
		f, err := os.Create(path)
		if err != nil {
			t.Fatal(err)
		}
		compress(f)
		if err := f.Close(); err != nil {
			t.Fatal(err)
		}
		return path
	}

	paths := []string{
		write("segments.json", func(f *os.File) {
			f.WriteString(segmentsJSON)
		}),
		write("segments.json.gz", func(f *os.File) {
			gw := pgzip.NewWriter(f)
			gw.Write([]byte(segmentsJSON))
			gw.Close()
		}),
		write("segments.json.xz", func(f *os.File) {
			xw, err := xz.NewWriter(f)
			if err != nil {
				t.Fatal(err)
			}
			xw.Write([]byte(segmentsJSON))
			xw.Close()
		}),
		write("segments.json.zst", func(f *os.File) {
			zw, err := zstd.NewWriter(f)
			if err != nil {
				t.Fatal(err)
			}
			zw.Write([]byte(segmentsJSON))
			zw.Close()
		}),
	}

	for _, path := range paths {
		doc, err := loadSegments(path)
		if err != nil {
			t.Fatalf("loadSegments(%s): %v", path, err)
		}
		if doc.Basename != "SCES_512.48" {
			t.Errorf("%s: basename = %q", path, doc.Basename)
		}
		if len(doc.Segments) != 3 {
			t.Fatalf("%s: got %d segments, want 3", path, len(doc.Segments))
		}
		if doc.Segments[0].Kind != "c" || doc.Segments[0].Object != "build/src/main.c.o" {
			t.Errorf("%s: first segment = %+v", path, doc.Segments[0])
		}
	}
}

func TestLoadSegmentsMissing(t *testing.T) {
	if _, err := loadSegments(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing segment list")
	}
}
