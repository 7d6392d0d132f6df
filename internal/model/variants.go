package model

// TypeInfo returns a copy of the type payload. ok is false for other kinds.
func (n *Node) TypeInfo() (td TypeData, ok bool) {
	if n.typ == nil {
		return TypeData{}, false
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	td = *n.typ
	td.Imports = append([]ImportRecord(nil), n.typ.Imports...)
	return td, true
}

// PropertyInfo returns a copy of the property payload. ok is false for other
// kinds.
func (n *Node) PropertyInfo() (pd PropertyData, ok bool) {
	if n.prop == nil {
		return PropertyData{}, false
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return *n.prop, true
}

// FunctionInfo returns a copy of the signal or method payload. ok is false
// for other kinds.
func (n *Node) FunctionInfo() (fd FunctionData, ok bool) {
	if n.fn == nil {
		return FunctionData{}, false
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	fd = *n.fn
	fd.Parameters = append([]Parameter(nil), n.fn.Parameters...)
	return fd, true
}

// EnumInfo returns a copy of the enumeration payload. ok is false for other
// kinds.
func (n *Node) EnumInfo() (ed EnumData, ok bool) {
	if n.enum == nil {
		return EnumData{}, false
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return EnumData{Values: append([]string(nil), n.enum.Values...)}, true
}

// UpdateType runs fn on the type payload under the node's lock. It reports
// false, without calling fn, when the node is not a type.
func (n *Node) UpdateType(fn func(*TypeData)) bool {
	if n.typ == nil {
		return false
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	fn(n.typ)
	return true
}

// UpdateProperty runs fn on the property payload under the node's lock. It
// reports false, without calling fn, when the node is not a property.
func (n *Node) UpdateProperty(fn func(*PropertyData)) bool {
	if n.prop == nil {
		return false
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	fn(n.prop)
	return true
}

// UpdateFunction runs fn on the function payload under the node's lock. It
// reports false, without calling fn, when the node is not a signal or method.
func (n *Node) UpdateFunction(fn func(*FunctionData)) bool {
	if n.fn == nil {
		return false
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	fn(n.fn)
	return true
}

// UpdateEnum runs fn on the enumeration payload under the node's lock.
func (n *Node) UpdateEnum(fn func(*EnumData)) bool {
	if n.enum == nil {
		return false
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	fn(n.enum)
	return true
}
