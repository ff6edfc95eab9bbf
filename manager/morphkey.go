package manager

// MorphKeyMap maps a model type-tag (e.g. "User", "Tenant") to the
// identifier kind callers are expected to supply for it (e.g. "uuid",
// "integer"). The map's values are advisory metadata only — Manager
// validates presence of the type-tag, not the shape of the id string.
type MorphKeyMap map[string]string

func validateMorphKey(side, typeTag string, m MorphKeyMap, enforce bool) error {
	if typeTag == "" {
		return nil
	}
	if _, ok := m[typeTag]; ok {
		return nil
	}
	if enforce {
		return &MorphKeyViolationError{Side: side, Type: typeTag}
	}
	return nil
}
