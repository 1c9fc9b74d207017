// Package template resolves stored message templates and substitutes
// {{name}} placeholders into their subject and bodies.
//
// The Store interface abstracts where templates live; the database-backed
// store satisfies it in production and a map does in tests. Strictness is
// a construction-time flag on the Resolver rather than an environment
// comparison: strict deployments treat a missing template or an unresolved
// placeholder as a hard error, development setups fall back to a built-in
// template and leave unresolved placeholders visible so broken
// substitutions are easy to spot.
//
// Usage:
//
//	resolver := template.NewResolver(store, template.WithStrictMode(true))
//	tpl, err := resolver.Resolve(ctx, "welcome", map[string]string{
//		"name": "Ada",
//	})
package template
