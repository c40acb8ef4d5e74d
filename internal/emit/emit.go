// Package emit renders test case records as a pytest module.
package emit

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/unbound-force/testgen/internal/config"
	"github.com/unbound-force/testgen/internal/taxonomy"
)

// Header opens every rendered module.
const Header = "# Generated by testgen. Do not edit by hand."

// ObserveEnv names the environment variable holding the observation
// file path of a probe run.
const ObserveEnv = "TESTGEN_OBSERVE"

// Options configures rendering.
type Options struct {
	// Verbose adds the description of each record as a comment.
	Verbose bool

	// AsyncStyle selects how async targets are awaited. Empty means
	// asyncio.run.
	AsyncStyle string

	// Status is written on the line after the header, for example the
	// final state of the feedback loop.
	Status string

	// Observed maps record names to the repr of the value they
	// returned. Success records found here assert equality with it.
	Observed map[string]string

	// Probe instruments every success record to write its result to
	// the file named by ObserveEnv.
	Probe bool
}

// Render returns the pytest module for records. Every record target
// must be among descs. Identical input renders identical bytes.
func Render(records []taxonomy.TestCaseRecord, descs []taxonomy.CallableDescriptor, opts Options) ([]byte, error) {
	byID := make(map[string]*taxonomy.CallableDescriptor, len(descs))
	for i := range descs {
		byID[descs[i].ID] = &descs[i]
	}

	r := &renderer{opts: opts, imports: newImportSet()}
	type group struct {
		file    string
		records []taxonomy.TestCaseRecord
	}
	var groups []*group
	index := make(map[string]*group)
	for _, rec := range orderRecords(records) {
		d, ok := byID[rec.Target]
		if !ok {
			return nil, fmt.Errorf("record %s: unknown target %s", rec.Name, rec.Target)
		}
		gr, ok := index[d.File]
		if !ok {
			gr = &group{file: d.File}
			index[d.File] = gr
			groups = append(groups, gr)
		}
		gr.records = append(gr.records, rec)
	}
	r.bind(records, byID)

	var body strings.Builder
	for _, gr := range groups {
		fmt.Fprintf(&body, "\n\n# %s\n", gr.file)
		for _, rec := range gr.records {
			body.WriteString("\n\n")
			r.test(&body, rec, byID[rec.Target])
		}
	}

	var out strings.Builder
	out.WriteString(Header + "\n")
	if opts.Status != "" {
		fmt.Fprintf(&out, "# %s\n", opts.Status)
	}
	out.WriteString("\n")
	r.imports.write(&out)
	if opts.Probe {
		out.WriteString("\n\n")
		out.WriteString(probeHelper)
	}
	out.WriteString(body.String())
	return []byte(out.String()), nil
}

// orderRecords groups records by target in order of first appearance,
// keeping suite order within each target.
func orderRecords(records []taxonomy.TestCaseRecord) []taxonomy.TestCaseRecord {
	rank := make(map[string]int)
	for _, r := range records {
		if _, ok := rank[r.Target]; !ok {
			rank[r.Target] = len(rank)
		}
	}
	out := append([]taxonomy.TestCaseRecord(nil), records...)
	sort.SliceStable(out, func(i, j int) bool { return rank[out[i].Target] < rank[out[j].Target] })
	return out
}

type renderer struct {
	opts    Options
	imports *importSet

	// aliases maps module and name to the local alias of an imported
	// name that would otherwise be shadowed.
	aliases map[[2]string]string
}

// reserved names are bound by the rendered module itself.
var reserved = map[string]bool{"pytest": true, "asyncio": true}

// bind finds the module-level names the records import. A name that
// two modules provide, or that the rendered module binds itself, is
// imported under an alias derived from its module.
func (r *renderer) bind(records []taxonomy.TestCaseRecord, byID map[string]*taxonomy.CallableDescriptor) {
	owners := make(map[string]map[string]bool)
	note := func(module, name string) {
		if module == "" {
			return
		}
		name = rootName(name)
		if owners[name] == nil {
			owners[name] = make(map[string]bool)
		}
		owners[name][module] = true
	}
	for _, rec := range records {
		d := byID[rec.Target]
		note(d.Module, importName(d))
		if exc := rec.Expected.Exception; rec.Expected.Kind == taxonomy.OutcomeRaises && !taxonomy.IsBuiltinException(exc) {
			note(d.Module, exc)
		}
	}
	r.aliases = make(map[[2]string]string)
	for name, modules := range owners {
		if len(modules) < 2 && !reserved[name] {
			continue
		}
		for module := range modules {
			r.aliases[[2]string{module, name}] = strings.ReplaceAll(module, ".", "_") + "_" + name
		}
	}
}

// ref imports the first segment of a dotted name from module and
// returns the expression that reaches the name in the test module.
func (r *renderer) ref(module, dotted string) string {
	if module == "" {
		return dotted
	}
	name, rest, _ := strings.Cut(dotted, ".")
	local := name
	if alias, ok := r.aliases[[2]string{module, name}]; ok {
		local = alias
	}
	r.imports.from(module, name, local)
	if rest == "" {
		return local
	}
	return local + "." + rest
}

func (r *renderer) pytestAsyncio() bool {
	return r.opts.AsyncStyle == config.AsyncStylePytestAsyncio
}

func (r *renderer) test(b *strings.Builder, rec taxonomy.TestCaseRecord, d *taxonomy.CallableDescriptor) {
	r.imports.add("import pytest")
	var target string
	if d.Class != "" {
		target = r.ref(d.Module, d.Class)
	} else {
		target = r.ref(d.Module, d.Name)
	}

	expected := rec.Expected
	if lit, ok := r.opts.Observed[rec.Name]; ok && refinable(expected) {
		expected = taxonomy.Outcome{Kind: taxonomy.OutcomeEqualsLiteral, Literal: lit}
	}

	if r.opts.Verbose && rec.Description != "" {
		fmt.Fprintf(b, "# %s Expects %s.\n", strings.TrimSpace(rec.Description), expected)
	}
	async := rec.IsAsync && r.pytestAsyncio()
	if async {
		b.WriteString("@pytest.mark.asyncio\nasync def ")
	} else {
		b.WriteString("def ")
	}
	fmt.Fprintf(b, "%s():\n", rec.Name)

	if d.IsMethod {
		fmt.Fprintf(b, "    obj = %s(%s)\n", target, arguments(rec.Constructor))
	}
	call := r.await(rec, invocation(rec, d, target))

	switch expected.Kind {
	case taxonomy.OutcomeRaises:
		exc := expected.Exception
		if !taxonomy.IsBuiltinException(exc) {
			exc = r.ref(d.Module, exc)
		}
		fmt.Fprintf(b, "    with pytest.raises(%s):\n", exc)
		fmt.Fprintf(b, "        %s\n", call)
		return
	case taxonomy.OutcomeCompletes:
		if !r.opts.Probe {
			fmt.Fprintf(b, "    %s\n", call)
			return
		}
	}

	fmt.Fprintf(b, "    result = %s\n", call)
	if r.opts.Probe {
		fmt.Fprintf(b, "    _testgen_observe(%s, result)\n", strconv.Quote(rec.Name))
	}
	switch expected.Kind {
	case taxonomy.OutcomeReturnsType:
		typ := expected.Type
		if d.IsConstructor {
			typ = target
		}
		fmt.Fprintf(b, "    assert isinstance(result, %s)\n", typ)
	case taxonomy.OutcomeReturnsNone:
		b.WriteString("    assert result is None\n")
	case taxonomy.OutcomeReturnsValue:
		b.WriteString("    assert result is not None\n")
	case taxonomy.OutcomeEqualsLiteral:
		fmt.Fprintf(b, "    assert %s\n", equality(expected.Literal))
	}
}

// await wraps an async invocation in the configured convention.
func (r *renderer) await(rec taxonomy.TestCaseRecord, call string) string {
	if !rec.IsAsync {
		return call
	}
	if r.pytestAsyncio() {
		return "await " + call
	}
	r.imports.add("import asyncio")
	return "asyncio.run(" + call + ")"
}

// refinable reports whether an observed value may replace o.
func refinable(o taxonomy.Outcome) bool {
	switch o.Kind {
	case taxonomy.OutcomeReturnsType, taxonomy.OutcomeReturnsValue, taxonomy.OutcomeCompletes:
		return true
	}
	return false
}

// invocation renders the call expression of the target. local is the
// expression naming the class, or the function when d has no class.
func invocation(rec taxonomy.TestCaseRecord, d *taxonomy.CallableDescriptor, local string) string {
	args := arguments(rec.Args)
	switch {
	case d.IsMethod:
		return fmt.Sprintf("obj.%s(%s)", d.Name, args)
	case d.Class != "" && !d.IsConstructor:
		return fmt.Sprintf("%s.%s(%s)", local, d.Name, args)
	}
	return fmt.Sprintf("%s(%s)", local, args)
}

// arguments renders bindings, passing positional-only parameters
// positionally and the rest by keyword.
func arguments(bindings []taxonomy.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, a := range bindings {
		if a.Kind == taxonomy.ParamPositionalOnly {
			parts = append(parts, a.Value.Literal)
			continue
		}
		parts = append(parts, a.Param+"="+a.Value.Literal)
	}
	return strings.Join(parts, ", ")
}

// equality renders the assertion comparing result with a literal.
func equality(lit string) string {
	switch lit {
	case "True", "False", "None":
		return "result is " + lit
	}
	if isFloatLiteral(lit) {
		return "result == pytest.approx(" + lit + ")"
	}
	return "result == " + lit
}

func isFloatLiteral(lit string) bool {
	if _, err := strconv.ParseInt(lit, 10, 64); err == nil {
		return false
	}
	_, err := strconv.ParseFloat(lit, 64)
	return err == nil
}

// importName is the module-level name a test imports to reach d.
func importName(d *taxonomy.CallableDescriptor) string {
	if d.Class == "" {
		return d.Name
	}
	return rootName(d.Class)
}

func rootName(dotted string) string {
	name, _, _ := strings.Cut(dotted, ".")
	return name
}
