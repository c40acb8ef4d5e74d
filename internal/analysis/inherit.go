package analysis

import "github.com/unbound-force/testgen/internal/taxonomy"

// classIndex resolves base class names to classes discovered in the
// analyzed tree.
type classIndex struct {
	qualified map[string]*classModel
	simple    map[string][]*classModel
}

func newClassIndex(modules []*moduleModel) *classIndex {
	idx := &classIndex{
		qualified: make(map[string]*classModel),
		simple:    make(map[string][]*classModel),
	}
	for _, mod := range modules {
		for _, e := range mod.entries {
			if e.class == nil {
				continue
			}
			for _, c := range e.class.flatten() {
				idx.qualified[c.module+"."+c.name] = c
				idx.simple[c.name] = append(idx.simple[c.name], c)
			}
		}
	}
	return idx
}

// resolve finds the class a base name in module refers to: a class of
// that name in the same module, otherwise the only class of that name
// in the tree. Ambiguous and external bases resolve to nil.
func (idx *classIndex) resolve(module, base string) *classModel {
	if c, ok := idx.qualified[module+"."+base]; ok {
		return c
	}
	if cands := idx.simple[base]; len(cands) == 1 {
		return cands[0]
	}
	return nil
}

// inherited returns descriptors owned by c for the methods it inherits
// without overriding, searching bases depth first, left to right.
func (idx *classIndex) inherited(c *classModel) []taxonomy.CallableDescriptor {
	var out []taxonomy.CallableDescriptor
	seen := make(map[string]bool, len(c.defined))
	for name := range c.defined {
		seen[name] = true
	}
	visited := map[*classModel]bool{c: true}

	var walk func(cls *classModel)
	walk = func(cls *classModel) {
		for _, baseName := range cls.bases {
			base := idx.resolve(cls.module, baseName)
			if base == nil || visited[base] {
				continue
			}
			visited[base] = true
			for _, m := range base.methods {
				if seen[m.Name] {
					continue
				}
				seen[m.Name] = true
				out = append(out, rebind(m, c, base))
			}
			for name := range base.defined {
				seen[name] = true
			}
			walk(base)
		}
	}
	walk(c)
	return out
}

// rebind copies a base class method descriptor onto the subclass.
func rebind(m taxonomy.CallableDescriptor, owner, base *classModel) taxonomy.CallableDescriptor {
	d := m
	d.Params = append([]taxonomy.Parameter(nil), m.Params...)
	d.Guards = append([]taxonomy.Guard(nil), m.Guards...)
	if base.module != owner.module {
		// Names bound in the base module are not importable from the
		// subclass module.
		for i := range d.Guards {
			if !taxonomy.IsBuiltinException(d.Guards[i].Exception) {
				d.Guards[i].Exception = "Exception"
			}
		}
	}
	d.Branches = append([]taxonomy.Guard(nil), m.Branches...)
	d.Decorators = append([]string(nil), m.Decorators...)
	d.Class = owner.name
	d.Module = owner.module
	d.File = owner.file
	if m.InheritedFrom == "" {
		d.InheritedFrom = base.name
	}
	d.QualifiedName = qualify(owner.module, owner.name, m.Name)
	d.ID = taxonomy.GenerateID(owner.file, d.QualifiedName)
	return d
}
