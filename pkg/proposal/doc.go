// Package proposal defines the contract with the language-model service that
// proposes form fields from a natural-language prompt, and the parse boundary
// that turns its loosely typed output into validated model.Field values.
//
// Backends live in sub-packages (openai, gemini, remote) and share the
// Registry so callers can select one by name from configuration.
package proposal
