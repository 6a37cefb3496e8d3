// Package catalog serves the base forms attached to merchant category codes.
//
// A Catalog is loaded from JSON or YAML documents (Default embeds the stock
// set) and implements Fetcher; HTTPFetcher implements the same contract
// against a remote formprompt server. Forms returned by either are copies with
// every field locked.
package catalog
