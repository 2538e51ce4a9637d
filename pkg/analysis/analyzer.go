// Package analysis checks a parsed script against the registered slots
// without running it. `zeno check` reports its findings.
package analysis

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"zenort/pkg/engine"
)

type AnalysisResult struct {
	Errors   []engine.Diagnostic
	Warnings []engine.Diagnostic
}

// OK reports whether the script has no errors. Warnings do not count.
func (r AnalysisResult) OK() bool {
	return len(r.Errors) == 0
}

// keywords are names the executor or a parent slot handles itself.
var keywords = map[string]bool{
	"root": true, "fn": true, "param": true, "params": true,
	"as": true,
}

// slots whose value names a function to call.
var callers = map[string]bool{
	"call":       true,
	"task.spawn": true,
}

var varRef = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)

type spawnSite struct {
	handle string
	node   *engine.Node
}

type Analyzer struct {
	engine *engine.Engine

	funcs  map[string]bool
	refs   map[string]int
	spawns []spawnSite
}

func NewAnalyzer(eng *engine.Engine) *Analyzer {
	return &Analyzer{engine: eng}
}

func (a *Analyzer) Analyze(root *engine.Node) AnalysisResult {
	res := AnalysisResult{}
	a.funcs = make(map[string]bool)
	a.refs = make(map[string]int)
	a.spawns = nil

	// Functions may be called before they are defined, so collect them all
	// first.
	a.collect(root)
	a.walk(root, &res)
	a.checkSpawns(&res)
	return res
}

func (a *Analyzer) collect(node *engine.Node) {
	if node == nil {
		return
	}
	if node.Name == "fn" {
		if name := engine.RawString(node.Value); name != "" {
			a.funcs[name] = true
		}
	}
	if s, ok := node.Value.(string); ok {
		for _, m := range varRef.FindAllStringSubmatch(s, -1) {
			a.refs[m[1]]++
		}
	}
	for _, child := range node.Children {
		if node.Name == "task.spawn" && child.Name == "as" {
			continue
		}
		a.collect(child)
	}
}

func (a *Analyzer) walk(node *engine.Node, res *AnalysisResult) {
	if node == nil {
		return
	}

	if node.Name == "root" || node.Name == "fn" || isBlock(node.Name) {
		for _, child := range node.Children {
			a.walk(child, res)
		}
		return
	}

	// Variable shorthand and attributes the parent slot reads itself.
	if strings.HasPrefix(node.Name, "$") || keywords[node.Name] {
		return
	}

	meta, exists := a.engine.Docs[node.Name]
	if !exists {
		res.Errors = append(res.Errors, diag(node, node.Name, "static error: unknown slot '%s'", node.Name))
		return
	}

	if callers[node.Name] {
		a.checkCallee(node, node.Value, res)
	}
	if node.Name == "task.spawn" {
		handle := "task"
		if as := node.Child("as"); as != nil {
			handle = strings.TrimPrefix(engine.RawString(as.Value), "$")
		}
		a.spawns = append(a.spawns, spawnSite{handle: handle, node: node})
	}

	// 1. Unknown attributes, the same rule the executor applies on first run.
	if meta.Inputs != nil {
		for _, child := range node.Children {
			if engine.IsBlockName(child.Name) {
				continue
			}
			if _, ok := meta.Inputs[child.Name]; !ok {
				allowed := make([]string, 0, len(meta.Inputs))
				for k := range meta.Inputs {
					allowed = append(allowed, k)
				}
				sort.Strings(allowed)
				res.Errors = append(res.Errors, diag(child, node.Name,
					"static error: unknown attribute '%s'. Allowed attributes: %s", child.Name, strings.Join(allowed, ", ")))
			}
		}
	}

	// 2. Required attributes
	for name, input := range meta.Inputs {
		if input.Required && node.Child(name) == nil {
			res.Errors = append(res.Errors, diag(node, node.Name,
				"static error: missing required attribute '%s' for slot '%s'", name, node.Name))
		}
	}

	// 3. Required blocks
	for _, block := range meta.RequiredBlocks {
		if node.Child(block) == nil {
			res.Errors = append(res.Errors, diag(node, node.Name,
				"static error: missing required block '%s:' for slot '%s'", block, node.Name))
		}
	}

	// 4. Constant attribute values against their declared type
	for _, child := range node.Children {
		input, ok := meta.Inputs[child.Name]
		if !ok || input.Type == "" || input.Type == "any" {
			continue
		}
		raw := engine.RawString(child.Value)
		if raw == "" || strings.Contains(raw, "$") {
			continue
		}
		val := engine.ResolveRaw(child.Value, nil)
		if err := a.engine.ValidateValueType(val, input.Type, child, node.Name); err != nil {
			res.Errors = append(res.Errors, diag(child, node.Name, "static check failed: %v", err))
		}
	}

	// 5. Nested slots: blocks, and children that are not declared attributes
	for _, child := range node.Children {
		if _, isInput := meta.Inputs[child.Name]; isInput {
			continue
		}
		if isBlock(child.Name) {
			a.walk(child, res)
			continue
		}
		// Slots without declared inputs take free-form attributes; only
		// children that name a registered slot are statements.
		if _, isSlot := a.engine.Docs[child.Name]; isSlot || child.Name == "fn" {
			a.walk(child, res)
		}
	}
}

// checkCallee flags a bare function name that no fn in the script defines.
// Variables are resolved at run time and are not checked.
func (a *Analyzer) checkCallee(node *engine.Node, raw interface{}, res *AnalysisResult) {
	name := engine.RawString(raw)
	if name == "" || strings.HasPrefix(name, "$") {
		return
	}
	if !a.funcs[name] {
		res.Errors = append(res.Errors, diag(node, node.Name, "static error: unknown function '%s'", name))
	}
}

// checkSpawns warns about task handles nothing reads. Such a task is
// detached: a failure in it is never raised.
func (a *Analyzer) checkSpawns(res *AnalysisResult) {
	for _, s := range a.spawns {
		if a.refs[s.handle] > 0 {
			continue
		}
		w := diag(s.node, s.node.Name, "task handle '$%s' is never used; failures of this task will be dropped", s.handle)
		w.Type = "warning"
		res.Warnings = append(res.Warnings, w)
	}
}

// isBlock also accepts finally, which try runs itself.
func isBlock(name string) bool {
	return engine.IsBlockName(name) || name == "finally"
}

func diag(node *engine.Node, slot, format string, args ...interface{}) engine.Diagnostic {
	return engine.Diagnostic{
		Type:     "error",
		Message:  fmt.Sprintf(format, args...),
		Filename: node.Filename,
		Line:     node.Line,
		Col:      node.Col,
		Slot:     slot,
	}
}
