package dietary

// ExclusionSet accumulates the dishes already shown in a session. It only
// grows: there is no removal operation, and Union never drops members.
type ExclusionSet struct {
	IDs   []string `json:"ids,omitempty"`
	Names []string `json:"names,omitempty"`
}

// ContainsID reports whether the dish id was already shown
func (e ExclusionSet) ContainsID(id string) bool {
	if id == "" {
		return false
	}
	for _, existing := range e.IDs {
		if existing == id {
			return true
		}
	}
	return false
}

// ContainsName reports whether a dish with this name was already shown
func (e ExclusionSet) ContainsName(name string) bool {
	key := NormalizeName(name)
	if key == "" {
		return false
	}
	for _, existing := range e.Names {
		if existing == key {
			return true
		}
	}
	return false
}

// Excludes reports whether a candidate collides with the set by id or name
func (e ExclusionSet) Excludes(c FoodCandidate) bool {
	return e.ContainsID(c.DishID) || e.ContainsName(c.DishName)
}

// IDSet returns the ids as a lookup map
func (e ExclusionSet) IDSet() map[string]struct{} {
	set := make(map[string]struct{}, len(e.IDs))
	for _, id := range e.IDs {
		set[id] = struct{}{}
	}
	return set
}

// Len returns the number of excluded ids
func (e ExclusionSet) Len() int {
	return len(e.IDs)
}

// Union returns a new set holding the members of both sets
func (e ExclusionSet) Union(other ExclusionSet) ExclusionSet {
	out := e.clone()
	for _, id := range other.IDs {
		if id != "" && !out.ContainsID(id) {
			out.IDs = append(out.IDs, id)
		}
	}
	for _, name := range other.Names {
		key := NormalizeName(name)
		if key != "" && !out.ContainsName(key) {
			out.Names = append(out.Names, key)
		}
	}
	return out
}

// ExclusionFrom builds the additions a list of shown candidates contributes
func ExclusionFrom(candidates []FoodCandidate) ExclusionSet {
	var add ExclusionSet
	for _, c := range candidates {
		add = add.Union(ExclusionSet{IDs: []string{c.DishID}, Names: []string{c.DishName}})
	}
	return add
}

// SubsetOf reports whether every member of e is also a member of other
func (e ExclusionSet) SubsetOf(other ExclusionSet) bool {
	for _, id := range e.IDs {
		if !other.ContainsID(id) {
			return false
		}
	}
	for _, name := range e.Names {
		if !other.ContainsName(name) {
			return false
		}
	}
	return true
}

func (e ExclusionSet) clone() ExclusionSet {
	return ExclusionSet{IDs: cloneStrings(e.IDs), Names: cloneStrings(e.Names)}
}
