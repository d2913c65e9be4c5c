package tsugite

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// The R5900 mis-executes certain branches when particular padding precedes
// them in memory ("short loop" erratum). The disassembler keeps the original
// 4-byte encoding as a trailing comment on each instruction line; for
// affected functions those branches are rewritten into raw .word directives
// so the exact original bytes reach the output regardless of assembler
// instruction selection.
//
// The comment carries the bytes as four hex pairs, run-together in the
// toolchain's native form but accepted spaced as well.
var opcodePattern = regexp.MustCompile(
	`/\* (.+) ([0-9A-Z]{2}) ?([0-9A-Z]{2}) ?([0-9A-Z]{2}) ?([0-9A-Z]{2}) \*/` +
		`  ` +
		`(\b(?:bne|bnel|beq|beql|beqz|bnez|bnezl|beqzl|bgez|bgezl|bgtz|bgtzl|blez|blezl|bltz|bltzl|b)\b.*)`)

// The bytes are emitted pair-reversed: the comment shows them in memory
// order, .word wants the little-endian word value.
const opcodeReplacement = `/* ${1} ${2}${3}${4}${5} */  .word 0x${5}${4}${3}${2} /* ${6} */`

// Functions empirically confirmed to trigger the erratum. The rewrite is
// restricted to this list; applying it everywhere would bury legitimate
// branch instructions in diffs.
var problematicFuncs = map[string]struct{}{}

func init() {
	for _, fn := range []string{
		// text.cpp
		"func_00107760",
		"func_00107D68",
		"func_0010E998",
		"func_0010F568",
		"func_0012E2B8",
		"func_00139190",
		"func_00142470",
		"func_0014A398",
		"func_00123CA8",
		"func_00125270",
		"func_00144DC8",
		"func_0014D1B0",

		// text_00150120.cpp
		"func_0016BFD8",
		"func_00189A18",
		"func_0018FE80",
		"func_0017DC70",
		"func_00185878",

		// text_001A0020.cpp
		"func_001A2608",
		"func_001A2BA8",
		"func_001ABCA8",
		"func_001AC560",
		"func_001ADA80",
		"func_001C7BA8",
		"func_001D43F0",
		"func_001D4498",
		"func_001DF858",
		"func_001DFBB0",

		// text_001E14F8.cpp
		"func_001E1D30",
		"func_001E7780",
		"func_001FEC88",
		"func_0022CF80",

		// text_002401D8.cpp
		"func_00240A08",
		"func_00245AE8",
		"func_00278098",
		"func_0027C640",
		"func_0027D240",
		"func_0027EC50",
		"func_0028D6A8",
		"func_0028E4A0",
		"func_0028EC20",

		// text_00290D10.cpp
		"func_0029A198",
		"func_002AA498",
		"func_002AA978",
		"func_002AADF8",
		"func_002AB278",
		"func_002AB778",
		"func_002ABAE8",
		"func_002AF090",
		"func_002B1F40",
		"func_002B71E8",
		"func_002B9288",
		"func_002B9688",
		"func_002C0460",
		"func_002CA090",

		// text_002D0150.cpp
		"func_002F7A78",
		"func_002FC9B0",
		"func_0030A4C8",
		"func_00318BF8",
		"func_00319C28",
		"func_00327B78",
		"func_0032A680",
		"func_003326C0",
		"func_00333810",
		"func_00337B00",
		"func_00339120",
		"func_00339E68",
		"func_002FA958",
		"func_003120D0",
		"func_003374B0",
		"func_0033C5F8",
		"func_002FC288",
		"func_00302ED0",
		"func_00310370",
		"func_0033F640",
		"func_00303590",
		"func_0030BB10",
		"func_0030D8B8",
		"func_0031D298",
		"func_0032F0E0",
		"func_00335A80",
		"func_00335B84",
		"func_0034C230",
		"func_0030EC70",
		"func_00335258",
		"func_00336F9C",
		"func_0033739C",
		"func_0033B610",
		"func_00344A50",
	} {
		problematicFuncs[fn] = struct{}{}
	}
}

// patchShortLoops rewrites affected branches in every individually assembled
// function beneath asmRoot/nonmatchings. Files are written back only when a
// substitution occurred; after rewriting, the branch line no longer exists to
// re-match, so the pass is idempotent.
func patchShortLoops(asmRoot string) error {
	nmDir := filepath.Join(asmRoot, "nonmatchings")

	var files []string
	err := filepath.WalkDir(nmDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".s") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			// Nothing was split into individual functions.
			return nil
		}
		return fmt.Errorf("failed to scan %s: %w", nmDir, err)
	}

	var bar *progressbar.ProgressBar
	if term.IsTerminal(int(os.Stdout.Fd())) && len(files) > 0 {
		bar = progressbar.Default(int64(len(files)), "short loop patch")
	}

	patched := 0
	for _, p := range files {
		if bar != nil {
			bar.Add(1)
		}

		stem := strings.TrimSuffix(filepath.Base(p), ".s")
		if _, affected := problematicFuncs[stem]; !affected {
			continue
		}

		info, err := os.Stat(p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", p, err)
		}

		content := string(data)
		rewritten := opcodePattern.ReplaceAllString(content, opcodeReplacement)
		if rewritten == content {
			continue
		}

		if err := os.WriteFile(p, []byte(rewritten), info.Mode()); err != nil {
			return fmt.Errorf("failed to write %s: %w", p, err)
		}
		patched++
	}

	if patched > 0 {
		debugf("patched %d short loop function(s)\n", patched)
	}
	return nil
}
