package frame

// ColRef names a column and points back at the node that produced it.
//
// Owner is a non-owning back-reference: the ref does not keep a tree alive on
// its own behalf and never mutates it. Two refs are interchangeable iff Name
// and Owner (pointer identity) match; see Same.
type ColRef struct {
	Name  string
	Owner Node
}

func (ColRef) operand() {}

// Col creates a reference to name owned by n.
func Col(name string, n Node) ColRef {
	return ColRef{Name: name, Owner: n}
}

// Same reports whether two refs name the same column of the same node.
func (c ColRef) Same(other ColRef) bool {
	return c.Name == other.Name && c.Owner == other.Owner
}

// Resolved reports whether the ref's owner exposes its column. An owner
// without declared columns resolves every name.
func (c ColRef) Resolved() bool {
	if c.Owner == nil {
		return false
	}
	return c.Owner.HasColumn(c.Name)
}

// String renders the ref as alias.name.
func (c ColRef) String() string {
	if c.Owner == nil {
		return c.Name
	}
	return c.Owner.Alias() + "." + c.Name
}

// refsNamed wraps bare column names as refs owned by n, preserving order.
func refsNamed(n Node, names []string) []ColRef {
	refs := make([]ColRef, len(names))
	for i, name := range names {
		refs[i] = Col(name, n)
	}
	return refs
}

// hasColumn implements Node.HasColumn over a column list: an empty list
// means "all columns of the underlying relation" and matches any name.
func hasColumn(cols []ColRef, name string) bool {
	if len(cols) == 0 {
		return true
	}
	for _, ref := range cols {
		if ref.Name == name {
			return true
		}
	}
	return false
}

// declaresColumn is the strict variant of hasColumn: an empty list matches
// nothing.
func declaresColumn(n Node, name string) bool {
	for _, ref := range n.Columns() {
		if ref.Name == name {
			return true
		}
	}
	return false
}
