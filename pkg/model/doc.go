// Package model defines the field and form types shared by the merge engine,
// the session orchestrator and the persisted form store. A Form is an ordered
// list of Fields; locked fields come from a category's base form and are never
// altered by proposals, while editable fields are replaced or extended on each
// successful prompt. FieldType is an open enum and Option tolerates both the
// bare-string and {value,label} encodings readers may find in stored forms.
package model
