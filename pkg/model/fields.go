package model

// CloneFields deep copies a field slice. A nil input stays nil.
func CloneFields(fields []Field) []Field {
	if fields == nil {
		return nil
	}
	out := make([]Field, len(fields))
	for i, field := range fields {
		out[i] = field.Clone()
	}
	return out
}

// Partition splits fields into locked and editable subsets, preserving the
// relative order inside each subset.
func Partition(fields []Field) (locked, editable []Field) {
	for _, field := range fields {
		if field.Locked {
			locked = append(locked, field.Clone())
			continue
		}
		editable = append(editable, field.Clone())
	}
	return locked, editable
}

// Compose returns locked fields followed by editable fields.
func Compose(locked, editable []Field) []Field {
	out := make([]Field, 0, len(locked)+len(editable))
	for _, field := range locked {
		out = append(out, field.Clone())
	}
	for _, field := range editable {
		out = append(out, field.Clone())
	}
	return out
}

// LockAll returns a copy of fields with every entry marked locked.
func LockAll(fields []Field) []Field {
	out := CloneFields(fields)
	for i := range out {
		out[i].Locked = true
	}
	return out
}

// Names returns the set of field names.
func Names(fields []Field) map[string]struct{} {
	out := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		out[field.Name] = struct{}{}
	}
	return out
}

// IDs returns the set of field identifiers.
func IDs(fields []Field) map[string]struct{} {
	out := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		out[field.ID] = struct{}{}
	}
	return out
}
