package suite

// Find performs an iterative depth-first search over the tests tree with an
// explicit LIFO stack. Each popped chapter is scanned in key order; the first
// key equal to name wins, and chapters met along the way are pushed so the
// last one pushed is explored next. Scenario bodies are not searched.
func (s *Suite) Find(name string) (*Node, bool) {
	stack := []*Node{s.Tests}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, child := range cur.Children {
			if child.Name == name {
				return child, true
			}
			if child.Kind == KindChapter {
				stack = append(stack, child)
			}
		}
	}
	return nil, false
}

// FindScenario is Find restricted to scenarios. A first match that is a
// chapter reports not found.
func (s *Suite) FindScenario(name string) (*Scenario, bool) {
	n, ok := s.Find(name)
	if !ok || n.Kind != KindScenario {
		return nil, false
	}
	return n.Scenario, true
}

// Chapter returns the top-level chapter named name.
func (s *Suite) Chapter(name string) (*Node, bool) {
	for _, child := range s.Tests.Children {
		if child.Name == name && child.Kind == KindChapter {
			return child, true
		}
	}
	return nil, false
}

// ChapterScenarios returns the scenario children of the top-level chapter
// named name, in file order. Nested chapters are not expanded.
func (s *Suite) ChapterScenarios(name string) []*Node {
	ch, ok := s.Chapter(name)
	if !ok {
		return nil
	}
	var out []*Node
	for _, child := range ch.Children {
		if child.Kind == KindScenario {
			out = append(out, child)
		}
	}
	return out
}

// Entries flattens the tree into a pre-order listing of every scenario.
func (s *Suite) Entries() []Entry {
	var out []Entry
	var walk func(n *Node, chapter string)
	walk = func(n *Node, chapter string) {
		for _, child := range n.Children {
			switch child.Kind {
			case KindScenario:
				out = append(out, Entry{Name: child.Name, Chapter: chapter, Steps: len(child.Scenario.Steps)})
			case KindChapter:
				path := child.Name
				if chapter != "" {
					path = chapter + "/" + child.Name
				}
				walk(child, path)
			}
		}
	}
	walk(s.Tests, "")
	return out
}
