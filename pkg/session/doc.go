// Package session holds the operator's form-editing state and sequences the
// three triggers that change it: selecting a category, submitting a prompt and
// resetting to the base form.
//
// Each Session allows one outstanding external call. A second prompt while a
// call is in flight fails with ErrBusy; a category change, reset or clear
// cancels the outstanding call and its result is discarded (ErrSuperseded), so
// stale candidates never land on a newly selected form.
package session
