package genome

import "fmt"

// Dict is a sequence dictionary: the ordered set of reference names and
// their lengths. It supplies the reference ordering used when comparing
// mappings across references.
type Dict struct {
	names   []string
	indexes map[string]int
	lengths map[string]int
}

// NewDict builds a dictionary from references in order.
func NewDict(names []string, lengths map[string]int) *Dict {
	d := &Dict{
		names:   append([]string(nil), names...),
		indexes: make(map[string]int, len(names)),
		lengths: make(map[string]int, len(names)),
	}
	for i, name := range names {
		d.indexes[name] = i
		d.lengths[name] = lengths[name]
	}
	return d
}

// Index returns the position of refName in the dictionary.
func (d *Dict) Index(refName string) (int, error) {
	i, ok := d.indexes[refName]
	if !ok {
		return 0, fmt.Errorf("reference %q not in dictionary", refName)
	}
	return i, nil
}

// Length returns the length of refName in bases.
func (d *Dict) Length(refName string) (int, error) {
	n, ok := d.lengths[refName]
	if !ok {
		return 0, fmt.Errorf("reference %q not in dictionary", refName)
	}
	return n, nil
}

// Names returns the reference names in dictionary order.
func (d *Dict) Names() []string {
	return append([]string(nil), d.names...)
}
