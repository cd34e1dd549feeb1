package runtime

// Scope is an ordered variable mapping with an optional parent. Reads walk
// the parent chain; writes always land in the local scope, shadowing any
// parent binding of the same name.
type Scope struct {
	parent *Scope
	names  []string
	vars   map[string]any
}

func NewScope(parent *Scope) *Scope {
	return &Scope{parent: parent, vars: map[string]any{}}
}

// Get resolves a name locally first, then through the parent chain.
func (s *Scope) Get(name string) (any, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

func (s *Scope) Has(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// Set binds a name in the local scope. Rebinding an existing local name
// keeps its original position in insertion order.
func (s *Scope) Set(name string, value any) {
	if _, ok := s.vars[name]; !ok {
		s.names = append(s.names, name)
	}
	s.vars[name] = value
}

// Names returns visible names in a stable order: parent bindings first, then
// local ones, each in insertion order. Shadowed names appear once.
func (s *Scope) Names() []string {
	var out []string
	seen := map[string]bool{}
	if s.parent != nil {
		for _, n := range s.parent.Names() {
			if _, shadowed := s.vars[n]; !shadowed {
				out = append(out, n)
				seen[n] = true
			}
		}
	}
	for _, n := range s.names {
		if !seen[n] {
			out = append(out, n)
		}
	}
	return out
}

// Flatten merges the visible bindings into one map.
func (s *Scope) Flatten() map[string]any {
	out := map[string]any{}
	for _, n := range s.Names() {
		v, _ := s.Get(n)
		out[n] = v
	}
	return out
}
