// Package worker provides a worker pool for parallel batch expansion.
//
// The pool runs a fixed set of goroutines that expand submitted documents
// with a shared Expander, so remote contexts loaded for one document are
// memoised for the rest of the batch.
//
// Example usage:
//
//	exp := engine.New(ld.WithLoader(loader.NewEmbedded()))
//	pool := worker.NewPool(exp, 4)
//
//	for _, doc := range docs {
//	    pool.Submit(worker.Job{Data: doc})
//	}
//
//	batch := pool.CloseAndWait()
//	for _, r := range batch.Results {
//	    if !r.OK() {
//	        // Handle r.Err
//	    }
//	}
//
// For a fixed slice of documents, Batch is simpler:
//
//	batch := worker.NewBatch(exp, 0).ExpandAll(ctx, docs)
package worker
