package tsugite

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const branchAsm = `glabel %s
/* 1F0 00107950 00000000 */  nop
/* bne 12 34 56 78 */  bne $a0, $a1, .L00107964
/* 1F8 00107958 00000000 */  nop
`

func writeAsmFile(t *testing.T, root, name, content string) string {
	t.Helper()
	path := filepath.Join(root, "nonmatchings", "text", name+".s")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestPatchShortLoops(t *testing.T) {
	setupConfig(t)
	root := t.TempDir()

	affected := writeAsmFile(t, root, "func_00107760",
		strings.ReplaceAll(branchAsm, "%s", "func_00107760"))
	untouched := writeAsmFile(t, root, "func_99999999",
		strings.ReplaceAll(branchAsm, "%s", "func_99999999"))
	before := readFile(t, untouched)

	if err := patchShortLoops(root); err != nil {
		t.Fatal(err)
	}

	got := readFile(t, affected)
	if !strings.Contains(got, ".word 0x78563412") {
		t.Errorf("affected function not rewritten:\n%s", got)
	}
	if !strings.Contains(got, "/* bne $a0, $a1, .L00107964 */") {
		t.Errorf("original mnemonic not preserved as a comment:\n%s", got)
	}
	if strings.Contains(got, "*/  bne ") {
		t.Errorf("branch instruction still present:\n%s", got)
	}

	// a function not on the allow-list is left byte-for-byte unchanged
	if readFile(t, untouched) != before {
		t.Error("non-affected function was modified")
	}
}

func TestPatchShortLoopsIdempotent(t *testing.T) {
	setupConfig(t)
	root := t.TempDir()

	path := writeAsmFile(t, root, "func_00107760",
		strings.ReplaceAll(branchAsm, "%s", "func_00107760"))

	if err := patchShortLoops(root); err != nil {
		t.Fatal(err)
	}
	once := readFile(t, path)

	if err := patchShortLoops(root); err != nil {
		t.Fatal(err)
	}
	if twice := readFile(t, path); twice != once {
		t.Errorf("patching is not idempotent:\n-- once --\n%s\n-- twice --\n%s", once, twice)
	}
}

func TestPatchShortLoopsRunTogetherBytes(t *testing.T) {
	setupConfig(t)
	root := t.TempDir()

	content := "/* 200 00107960 0300401E */  bnezl $v0, .L00107970\n"
	path := writeAsmFile(t, root, "func_00107D68", "glabel func_00107D68\n"+content)

	if err := patchShortLoops(root); err != nil {
		t.Fatal(err)
	}
	got := readFile(t, path)
	if !strings.Contains(got, ".word 0x1E400003") {
		t.Errorf("run-together byte pairs not rewritten:\n%s", got)
	}
}

func TestPatchShortLoopsMissingTree(t *testing.T) {
	setupConfig(t)
	if err := patchShortLoops(filepath.Join(t.TempDir(), "asm")); err != nil {
		t.Fatalf("missing nonmatchings tree should be a no-op, got %v", err)
	}
}
