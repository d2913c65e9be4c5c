package tsugite

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

type buildMode int

const (
	modeNormal buildMode = iota
	modeDiff
)

// planner accumulates the build graph for one synthesis pass: every emitted
// output (for duplicate detection), the ordered object set feeding the link
// step, and in diff mode the manifest units.
type planner struct {
	nw        *ninjaWriter
	mode      buildMode
	outputs   map[string]struct{}
	built     []string
	builtSeen map[string]struct{}
	units     []manifestUnit
}

func newPlanner(w io.Writer, mode buildMode) *planner {
	return &planner{
		nw:        newNinjaWriter(w),
		mode:      mode,
		outputs:   make(map[string]struct{}),
		builtSeen: make(map[string]struct{}),
	}
}

// buildTask is one graph node: a rule, its outputs and inputs, and optional
// flags appended to the rule's base flags.
type buildTask struct {
	rule       ruleKind
	outputs    []string
	inputs     []string
	extraFlags string
}

func (p *planner) writeRules() {
	ldArgs := fmt.Sprintf("-EL -T %s -T %s -Map $mapfile -T $in -o $out",
		filepath.Join(LinkDir, "undefined_syms_auto.txt"),
		filepath.Join(LinkDir, "undefined_funcs_auto.txt"))

	p.nw.rule("as", fmt.Sprintf("cpp %s $in -o  - | %sas -no-pad-sections -EL -march=5900 -mabi=eabi -Iinclude -o $out",
		includePaths, crossPrefix), "as $in")
	p.nw.rule("cc", fmt.Sprintf("%s $cflags $in -o $out && %sstrip $out -N dummy-symbol-name",
		compileCmdC, crossPrefix), "cc $in")
	p.nw.rule("cpp", fmt.Sprintf("%s $cflags $in -o $out && %sstrip $out -N dummy-symbol-name",
		compileCmdCpp, crossPrefix), "cpp $in")
	p.nw.rule("ld", fmt.Sprintf("%sld %s", crossPrefix, ldArgs), "link $out")
	p.nw.rule("sha1sum", "sha1sum -c $in && touch $out", "sha1sum $in")
	p.nw.rule("elf", fmt.Sprintf("%sobjcopy $in $out -O binary", crossPrefix), "elf $out")
}

// addTask registers one graph node. Duplicate outputs are a configuration
// error: the executor treats them as a graph conflict, so they must never be
// silently overwritten.
func (p *planner) addTask(t buildTask) error {
	for _, out := range t.outputs {
		if _, dup := p.outputs[out]; dup {
			return fmt.Errorf("duplicate build output %s", out)
		}
		p.outputs[out] = struct{}{}
		if strings.HasSuffix(out, ".o") {
			p.addObject(out)
		}
	}

	var vars map[string]string
	if t.extraFlags != "" {
		vars = map[string]string{"cflags": t.extraFlags}
	}
	p.nw.build(t.outputs, t.rule.String(), t.inputs, nil, nil, vars)
	return nil
}

func (p *planner) addObject(path string) {
	if _, seen := p.builtSeen[path]; seen {
		return
	}
	p.builtSeen[path] = struct{}{}
	p.built = append(p.built, path)
}

// planSegment emits the node(s) for one segment: one faithful node in normal
// mode, a redirected faithful node plus an instrumented (-DSKIP_ASM) node in
// diff mode.
func (p *planner) planSegment(seg Segment) error {
	rule, err := classifySegment(seg.Kind)
	if err != nil {
		if err == errNotBuildable {
			return nil
		}
		return err
	}
	if seg.Object == "" {
		// Bytes already accounted for by a sibling segment.
		return nil
	}

	if p.mode == modeDiff {
		redirected := targetObjectPath(seg.Object)
		if err := p.addTask(buildTask{rule: rule, outputs: []string{redirected}, inputs: seg.Sources}); err != nil {
			return err
		}
		unit, ok, err := newManifestUnit(seg, redirected)
		if err != nil {
			return err
		}
		if ok {
			p.units = append(p.units, unit)
		}
		return p.addTask(buildTask{rule: rule, outputs: []string{seg.Object}, inputs: seg.Sources, extraFlags: "-DSKIP_ASM"})
	}

	return p.addTask(buildTask{rule: rule, outputs: []string{seg.Object}, inputs: seg.Sources})
}

// targetObjectPath flattens a declared object path into the dual-build root:
// build/src/main.c.o becomes target/main.o.
func targetObjectPath(obj string) string {
	stem := filepath.Base(obj)
	stem = strings.TrimSuffix(stem, filepath.Ext(stem))
	if ext := filepath.Ext(stem); ext == ".s" || ext == ".c" {
		stem = strings.TrimSuffix(stem, ext)
	}
	return filepath.Join(TargetDir, stem+".o")
}

// writeLinkSteps emits the link node (the whole object set as implicit
// dependencies), the raw-binary extraction node and, unless disabled, the
// checksum verification node.
func (p *planner) writeLinkSteps(skipChecksum bool) {
	p.nw.build([]string{preElfPath()}, "ld", []string{ldScriptPath()}, p.built, nil,
		map[string]string{"mapfile": mapPath()})
	p.nw.build([]string{elfPath()}, "elf", []string{preElfPath()}, nil, nil, nil)

	if skipChecksum {
		colArrow.Print("-> ")
		colWarn.Println("Skipping checksum step")
		return
	}
	p.nw.build([]string{elfPath() + ".ok"}, "sha1sum", []string{checksumPath()}, []string{elfPath()}, nil, nil)
}

// synthesize runs one full synthesis pass over the segment list, writing the
// build graph to w. In diff mode it returns the collected manifest units
// instead of emitting link steps.
func synthesize(w io.Writer, segments []Segment, mode buildMode, skipChecksum bool) ([]manifestUnit, error) {
	p := newPlanner(w, mode)
	p.writeRules()

	for _, seg := range segments {
		if err := p.planSegment(seg); err != nil {
			return nil, err
		}
	}

	if mode == modeNormal {
		p.writeLinkSteps(skipChecksum)
	}

	if err := p.nw.flush(); err != nil {
		return nil, err
	}
	return p.units, nil
}
