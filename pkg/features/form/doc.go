// Package form provides reactive form state over dynamically shaped values.
//
// # Overview
//
// A Model is a node in a value tree of map[string]any and []any. The root
// model stores the value; sub-models, fields and checks are views created
// on first access and memoized per path. Each model locks its shape to
// array or object the first time it is indexed: an integer segment implies
// an array, anything else an object. Accessing a locked model with the
// other shape panics.
//
//	m := form.NewModel(map[string]any{"items": []any{}})
//	items := m.GetSubModel("items")
//	form.Append(items, func(*form.Model) any {
//	    return map[string]any{"name": ""}
//	})
//
//	name := m.GetField("items.0.name")
//	unmount := form.MountField(ctx, name, form.ItemProps{Required: true})
//	defer unmount()
//
//	res := form.ValidateAll(ctx, m, form.TriggerAll)
//	// res.Errors == {"items": [{"name": "This field is required"}]}
//
// # Fields and Forks
//
// A Field reads and writes one key of its model. A tuple field spans
// several sibling keys as one array value. GetFork returns another
// instance of the same field with its own mount and validation state; tree
// iteration visits every fork.
//
// # Validation
//
// Validation runs only for mounted fields and checks. Starting a validation
// supersedes the pending one for the same field: a superseded run's result
// is dropped when it settles. ValidateAll validates everything under a model
// concurrently and returns an error tree that mirrors the value's shape.
//
// # Arrays
//
// Append, Delete, Move, MoveUp, MoveDown, Swap and Clear keep an array's
// value and its sub-models in step. Sub-models keep their ids across
// reorders, so ItemKey identifies an item while its index changes. Removed
// sub-models are marked deleted; writes through them are ignored with a
// warning.
//
// # Reactivity
//
// Reads of values, names, paths and validation state subscribe the current
// reactive listener (see package reactive). Writes notify after the model's
// lock is released, batched per operation.
package form
