// Package generate turns callable descriptors and synthesized values
// into named test case records.
package generate

import (
	"fmt"
	"strings"

	"github.com/unbound-force/testgen/internal/classify"
	"github.com/unbound-force/testgen/internal/config"
	"github.com/unbound-force/testgen/internal/synth"
	"github.com/unbound-force/testgen/internal/taxonomy"
)

// Options configures test case generation.
type Options struct {
	// MaxBoundaryCases caps the boundary records per callable. Zero
	// uses the configured value.
	MaxBoundaryCases int

	// Config is the testgen configuration. If nil, defaults are used.
	Config *config.TestgenConfig
}

// Generator builds test case records for a fixed set of descriptors.
// It is not safe for concurrent use.
type Generator struct {
	opts  Options
	descs []taxonomy.CallableDescriptor

	ctors     map[string]*taxonomy.CallableDescriptor
	bindings  map[string][]taxonomy.Binding
	syntheses map[string]synth.Synthesis
	outcomes  map[string]taxonomy.Outcome
	gaps      []error
}

// New returns a generator over descs. The descriptors are not copied
// and must not be modified afterwards.
func New(descs []taxonomy.CallableDescriptor, opts Options) *Generator {
	if opts.Config == nil {
		opts.Config = config.DefaultConfig()
	}
	if opts.MaxBoundaryCases <= 0 {
		opts.MaxBoundaryCases = opts.Config.Generation.MaxBoundaryCases
	}
	g := &Generator{
		opts:      opts,
		descs:     descs,
		ctors:     make(map[string]*taxonomy.CallableDescriptor),
		bindings:  make(map[string][]taxonomy.Binding),
		syntheses: make(map[string]synth.Synthesis),
		outcomes:  make(map[string]taxonomy.Outcome),
	}
	for i := range descs {
		if descs[i].IsConstructor {
			g.ctors[classKey(&descs[i])] = &descs[i]
		}
	}
	return g
}

// Gaps returns the synthesis gaps met so far, one per parameter.
func (g *Generator) Gaps() []error {
	return g.gaps
}

// Base returns the happy-path, exception, and boundary records of
// every descriptor, skipping records the suite has already attempted.
func (g *Generator) Base(suite *taxonomy.Suite) []taxonomy.TestCaseRecord {
	var c collector
	for i := range g.descs {
		d := &g.descs[i]
		c.add(suite, g.happyPath(d))
		for _, r := range g.exceptions(d) {
			c.add(suite, r)
		}
		boundary := g.boundaries(d)
		if len(boundary) > g.opts.MaxBoundaryCases {
			boundary = boundary[:g.opts.MaxBoundaryCases]
		}
		for _, r := range boundary {
			c.add(suite, r)
		}
	}
	return c.records
}

func (g *Generator) happyPath(d *taxonomy.CallableDescriptor) taxonomy.TestCaseRecord {
	r := g.record(d, taxonomy.ScenarioHappyPath, "happy_path", g.typicalArgs(d))
	r.Description = fmt.Sprintf("Call %s with typical values.", d.DisplayName())
	return r
}

// exceptions returns one record per guard whose invalid value could be
// synthesized.
func (g *Generator) exceptions(d *taxonomy.CallableDescriptor) []taxonomy.TestCaseRecord {
	var out []taxonomy.TestCaseRecord
	for _, guard := range d.Guards {
		p, ok := d.Param(guard.Parameter)
		if !ok || p.IsVariadic() {
			continue
		}
		condition := guard.String()
		for _, v := range g.synthesis(d, p).Tagged(taxonomy.TagInvalid) {
			if v.Violates != condition {
				continue
			}
			tag := fmt.Sprintf("%s_raises_%s", p.Name, guard.Exception)
			r := g.record(d, taxonomy.ScenarioException, tag, g.argsWith(d, p.Name, v))
			r.Description = fmt.Sprintf("Pass %s=%s so that %q holds; expects %s.", p.Name, v.Literal, condition, guard.Exception)
			out = append(out, r)
			break
		}
	}
	return out
}

// boundaries returns one record per boundary value, varying one
// parameter at a time, uncapped.
func (g *Generator) boundaries(d *taxonomy.CallableDescriptor) []taxonomy.TestCaseRecord {
	var out []taxonomy.TestCaseRecord
	for _, p := range d.Params {
		if p.IsVariadic() {
			continue
		}
		for _, v := range g.synthesis(d, p).Tagged(taxonomy.TagBoundaryLow, taxonomy.TagBoundaryHigh) {
			tag := fmt.Sprintf("%s_%s", p.Name, v.Tag)
			r := g.record(d, taxonomy.ScenarioBoundary, tag, g.argsWith(d, p.Name, v))
			r.Description = fmt.Sprintf("Pass the %s value %s for %s.", strings.ReplaceAll(string(v.Tag), "_", " "), v.Literal, p.Name)
			out = append(out, r)
		}
	}
	return out
}

// record assembles a record and derives its expected outcome.
func (g *Generator) record(d *taxonomy.CallableDescriptor, scenario taxonomy.Scenario, tag string, args []taxonomy.Binding) taxonomy.TestCaseRecord {
	name := d.Name
	if d.IsConstructor {
		name = lastSegment(d.Class)
	}
	r := taxonomy.TestCaseRecord{
		Name:     testName(name, tag),
		Target:   d.ID,
		Callable: d.DisplayName(),
		Scenario: scenario,
		Args:     args,
		IsAsync:  d.IsAsync,
	}
	if d.IsMethod {
		r.Constructor = g.constructorArgs(d)
	}
	r.Expected = g.expected(d, r)
	return r
}

// expected returns raises E for the first guard, in source order, that
// the bound values trip, and the classified success outcome otherwise.
func (g *Generator) expected(d *taxonomy.CallableDescriptor, r taxonomy.TestCaseRecord) taxonomy.Outcome {
	if d.IsMethod {
		if ctor := g.ctors[classKey(d)]; ctor != nil {
			if exc := firstTripped(ctor.Guards, r.Constructor); exc != "" {
				return taxonomy.Outcome{Kind: taxonomy.OutcomeRaises, Exception: exc}
			}
		}
	}
	if exc := firstTripped(d.Guards, r.Args); exc != "" {
		return taxonomy.Outcome{Kind: taxonomy.OutcomeRaises, Exception: exc}
	}

	if o, ok := g.outcomes[d.ID]; ok {
		return o
	}
	o := classify.Classify(d, classify.Options{Config: g.opts.Config}).Outcome
	g.outcomes[d.ID] = o
	return o
}

func firstTripped(guards []taxonomy.Guard, args []taxonomy.Binding) string {
	for _, guard := range guards {
		for _, a := range args {
			if a.Param == guard.Parameter && synth.Trips(guard, a.Value) {
				return guard.Exception
			}
		}
	}
	return ""
}

// synthesis returns the cached values of one parameter.
func (g *Generator) synthesis(d *taxonomy.CallableDescriptor, p taxonomy.Parameter) synth.Synthesis {
	key := d.ID + "\x00" + p.Name
	if s, ok := g.syntheses[key]; ok {
		return s
	}
	s := synth.Synthesize(p, d.Guards)
	if s.Gap != nil {
		g.gaps = append(g.gaps, fmt.Errorf("%s: %w", d.DisplayName(), s.Gap))
	}
	g.syntheses[key] = s
	return s
}

// typicalArgs binds the typical value of every non-variadic parameter
// in declaration order.
func (g *Generator) typicalArgs(d *taxonomy.CallableDescriptor) []taxonomy.Binding {
	args := make([]taxonomy.Binding, 0, len(d.Params))
	for _, p := range d.Params {
		if p.IsVariadic() {
			continue
		}
		args = append(args, taxonomy.Binding{Param: p.Name, Kind: p.Kind, Value: g.synthesis(d, p).Typical()})
	}
	return args
}

// argsWith is typicalArgs with the named parameter bound to v.
func (g *Generator) argsWith(d *taxonomy.CallableDescriptor, name string, v taxonomy.ValueSpec) []taxonomy.Binding {
	args := g.typicalArgs(d)
	for i := range args {
		if args[i].Param == name {
			args[i].Value = v
		}
	}
	return args
}

// constructorArgs binds the typical values of the owning class's
// __init__, or nothing when the class has none.
func (g *Generator) constructorArgs(d *taxonomy.CallableDescriptor) []taxonomy.Binding {
	key := classKey(d)
	if b, ok := g.bindings[key]; ok {
		return b
	}
	var b []taxonomy.Binding
	if ctor := g.ctors[key]; ctor != nil {
		b = g.typicalArgs(ctor)
	}
	g.bindings[key] = b
	return b
}

func classKey(d *taxonomy.CallableDescriptor) string {
	return d.Module + "\x00" + d.Class
}

func lastSegment(dotted string) string {
	if i := strings.LastIndexByte(dotted, '.'); i >= 0 {
		return dotted[i+1:]
	}
	return dotted
}

// testName builds test_<callable>_<tag> in lower snake case.
func testName(callable, tag string) string {
	return "test_" + snake(callable) + "_" + snake(tag)
}

func snake(s string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// collector accumulates records not yet attempted, dropping repeats
// within one batch.
type collector struct {
	records []taxonomy.TestCaseRecord
	seen    map[string]bool
}

func (c *collector) add(suite *taxonomy.Suite, r taxonomy.TestCaseRecord) {
	if suite != nil && suite.Attempted(r) {
		return
	}
	if c.seen == nil {
		c.seen = make(map[string]bool)
	}
	fp := r.Fingerprint()
	if c.seen[fp] {
		return
	}
	c.seen[fp] = true
	c.records = append(c.records, r)
}
