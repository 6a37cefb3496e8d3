// Package categories serves the merchant category selector.
//
// A Component reads categories from a Source, usually the *catalog.Catalog
// that also serves base forms, and exposes them as a chi sub-router:
//
//	GET /?q=&limit=   {"data":[{"value":"5411","label":"..."}]}
//	GET /{code}       {"value":"5411","label":"..."}
//
// Queries match codes, labels or both depending on Options.Match.
package categories
