// Package stache provides a logic-less, Mustache-derived template engine with
// scoped sections, relative names and partials, rendered with HTML-safe escaping.
//
// # Basic Usage
//
// Create an engine and execute templates:
//
//	engine := stache.MustNew()
//	result, err := engine.Execute(ctx, "Hello, {{user.name}}!", map[string]any{
//	    "user": map[string]any{"name": "Alice"},
//	})
//	// result: "Hello, Alice!"
//
// # Template Syntax
//
//	{{name}}                escaped interpolation (< & " ' become entities)
//	{{{name}}}              raw interpolation
//	{{#name}}..{{/name}}    iteration: once per element, element pushed as scope
//	{{^name}}..{{/name}}    negative iteration: once when name is nil, None or a failed Result
//	{{#name?}}..{{/name}}   conditional: once when name is truthy, name pushed as scope
//	{{^name?}}..{{/name}}   negative conditional
//	{{#name.}}..{{/name}}   scope: once, name pushed as scope
//	{{>partial}}            include partial with the enclosing scope as root
//	{{>partial name}}       include partial with name as root
//
// Section closers repeat the opener's name without the "?" or "." marker.
//
// # Names
//
// Names are dot-separated paths. A plain name is looked up from the innermost scope
// outward; leading dots address a scope explicitly: "." is the innermost scope,
// ".." its parent and so on. A trailing "()" calls a zero-argument method or func.
// Numeric segments index slices and arrays.
//
//	{{.}}  {{.name}}  {{..title}}  {{user.address.city}}  {{items.0}}  {{user.FullName()}}
//
// # Partials
//
// Partials are loaded through a TemplateLoader and cached per canonical name:
//
//	engine, err := stache.New(stache.WithBaseDir("./templates"))
//	tmpl, err := engine.Load(ctx, "pages/home")   // reads pages/home.html
//
// Relative partial names resolve against the including template's directory, a
// leading "/" anchors at the base directory, and circular includes fail fast.
//
// # Values
//
// Types control how sections treat them by implementing Truthy, NegativeIterable,
// Iterable, Displayer or FieldGetter. Optional and Result cover the common cases:
//
//	data := map[string]any{"x": stache.Some(42), "y": stache.None[int]()}
//
// # Errors
//
// Errors are *cuserr.CustomError values. Use IsSyntaxError, IsStructuralError,
// IsResolutionError, IsCollaboratorError and IsNotFound to classify them.
package stache
