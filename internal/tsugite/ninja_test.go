package tsugite

import (
	"bytes"
	"strings"
	"testing"
)

func TestNinjaEscape(t *testing.T) {
	cases := map[string]string{
		"plain.o":        "plain.o",
		"with space.o":   "with$ space.o",
		"colon:name.o":   "colon$:name.o",
		"dollar$name.o":  "dollar$$name.o",
		"build/a b:c$.o": "build/a$ b$:c$$.o",
	}
	for in, want := range cases {
		if got := ninjaEscape(in); got != want {
			t.Errorf("ninjaEscape(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNinjaWriterBuild(t *testing.T) {
	var buf bytes.Buffer
	nw := newNinjaWriter(&buf)
	nw.rule("cc", "gcc -c $in -o $out", "cc $in")
	nw.build([]string{"out dir/a.o"}, "cc", []string{"src/a.c"}, []string{"hdr.h"}, nil,
		map[string]string{"cflags": "-DX"})
	if err := nw.flush(); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	wantLines := []string{
		"rule cc",
		"  description = cc $in",
		"  command = gcc -c $in -o $out",
		"build out$ dir/a.o: cc src/a.c | hdr.h",
		"  cflags = -DX",
	}
	for _, line := range wantLines {
		if !strings.Contains(out, line+"\n") {
			t.Errorf("output missing line %q:\n%s", line, out)
		}
	}
}
