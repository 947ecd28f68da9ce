// Package walker implements the recursive descent at the heart of JSON-LD
// expansion.
//
// A Walker visits a document value with an active context and turns every
// object, array and scalar it reaches into node.Objects:
//
//   - an embedded @context is merged into the active context first, loading
//     remote contexts through the Run it was given;
//   - keys are resolved through the active context, keyword aliases
//     included; keys that do not resolve are dropped;
//   - scalars become literals tagged with the term's datatype or language,
//     or node references when the term is typed @id or @vocab;
//   - value objects (@value), lists (@list) and sets (@set) are validated
//     and expanded;
//   - @graph on an otherwise empty top-level object is unwrapped into the
//     default graph.
//
// Nulls, empty objects and free-floating top-level scalars are dropped.
// Named graphs and reverse properties are reported as ld.ErrUnsupportedFeature.
//
// # Usage
//
//	w := walker.New(walker.Config{Options: opts, Run: proc.NewRun(hooks)})
//	defer w.Release()
//
//	objs, err := w.Walk(ctx, doc, active, "")
//
// Errors are *ld.Error values whose Path is a JSON pointer into the input.
//
// # Thread Safety
//
// A Walker is NOT safe for concurrent walks. Create one per expansion.
// Contexts and Processors may be shared.
package walker
