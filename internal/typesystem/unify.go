package typesystem

// Matches reports whether actual can flow where expected is required.
// Unknown on either side matches anything; containers match componentwise.
func Matches(expected, actual Type) bool {
	if IsUnknown(expected) || IsUnknown(actual) {
		return true
	}
	switch e := expected.(type) {
	case Boolean, Number, String, Character:
		return e.Key() == actual.Key()
	case List:
		a, ok := actual.(List)
		return ok && Matches(e.Element, a.Element)
	case NArity:
		a, ok := actual.(NArity)
		return ok && Matches(e.Element, a.Element)
	case ListOfTypes:
		a, ok := actual.(ListOfTypes)
		return ok && tuplesMatch(e, a, Matches)
	case Arguments:
		a, ok := actual.(Arguments)
		return ok && argumentsMatch(e, a, Matches)
	case Function:
		a, ok := actual.(Function)
		return ok && argumentsMatch(e.Args, a.Args, Matches) && Matches(e.Return, a.Return)
	}
	return false
}

// SameType is the strict form of Matches: Unknown only equals Unknown.
// Used to detect whether a re-inferred type actually changed.
func SameType(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case Unknown, Boolean, Number, String, Character:
		return x.Key() == b.Key()
	case List:
		y, ok := b.(List)
		return ok && SameType(x.Element, y.Element)
	case NArity:
		y, ok := b.(NArity)
		return ok && SameType(x.Element, y.Element)
	case ListOfTypes:
		y, ok := b.(ListOfTypes)
		return ok && tuplesMatch(x, y, SameType)
	case Arguments:
		y, ok := b.(Arguments)
		return ok && argumentsMatch(x, y, SameType)
	case Function:
		y, ok := b.(Function)
		return ok && argumentsMatch(x.Args, y.Args, SameType) && SameType(x.Return, y.Return)
	}
	return false
}

func tuplesMatch(a, b ListOfTypes, cmp func(Type, Type) bool) bool {
	if len(a.Types) != len(b.Types) {
		return false
	}
	for i := range a.Types {
		if !cmp(a.Types[i], b.Types[i]) {
			return false
		}
	}
	return true
}

func argumentsMatch(a, b Arguments, cmp func(Type, Type) bool) bool {
	if (a.Rest == nil) != (b.Rest == nil) {
		return false
	}
	if a.Rest != nil && !cmp(a.Rest.Element, b.Rest.Element) {
		return false
	}
	return tuplesMatch(a.Positional, b.Positional, cmp)
}

// Principal returns the more specific of two matching types.
// Non-matching inputs are a TypeMismatch.
func Principal(a, b Type) (Type, error) {
	if !Matches(a, b) {
		return nil, NewMismatchError(a, b)
	}
	return principal(a, b), nil
}

// PrincipalOf folds Principal over types starting from Unknown.
func PrincipalOf(types ...Type) (Type, error) {
	var acc Type = Unknown{}
	for _, t := range types {
		next, err := Principal(acc, t)
		if err != nil {
			return nil, err
		}
		acc = next
	}
	return acc, nil
}

// principal assumes Matches(a, b).
func principal(a, b Type) Type {
	if IsUnknown(a) {
		if b == nil {
			return Unknown{}
		}
		return b.Clone()
	}
	if IsUnknown(b) {
		return a.Clone()
	}
	switch x := a.(type) {
	case List:
		return List{Element: principal(x.Element, b.(List).Element)}
	case NArity:
		return NArity{Element: principal(x.Element, b.(NArity).Element)}
	case ListOfTypes:
		return principalTuple(x, b.(ListOfTypes))
	case Arguments:
		return principalArgs(x, b.(Arguments))
	case Function:
		y := b.(Function)
		return Function{Args: principalArgs(x.Args, y.Args), Return: principal(x.Return, y.Return)}
	}
	return a.Clone()
}

func principalTuple(a, b ListOfTypes) ListOfTypes {
	out := make([]Type, len(a.Types))
	for i := range a.Types {
		out[i] = principal(a.Types[i], b.Types[i])
	}
	return ListOfTypes{Types: out}
}

func principalArgs(a, b Arguments) Arguments {
	out := Arguments{Positional: principalTuple(a.Positional, b.Positional)}
	if a.Rest != nil {
		out.Rest = &NArity{Element: principal(a.Rest.Element, b.Rest.Element)}
	}
	return out
}
