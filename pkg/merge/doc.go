// Package merge reconciles the field list proposed by a language-model service
// with a form's current fields.
//
// Two policies are supported. The additive policy (the default) appends
// candidates whose name is not yet present; the replacement policy treats the
// candidate list as the complete editable set, so an empty proposal clears
// every editable field. Under both policies locked fields are copied from the
// current form, always precede editable fields, and any candidate reusing a
// locked field's name is discarded. Surviving candidates pass through the
// identity allocator so identifiers stay unique across repeated prompts.
package merge
