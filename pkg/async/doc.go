// Package async provides small generic helpers for running computations
// concurrently and joining on their results.
//
// Async starts a function in its own goroutine and returns a *Future; Await
// blocks for the result. WaitAll joins a set of futures and reports the
// first error, Settle joins them and reports every outcome, and Map fans a
// function out over a slice.
//
//	list := async.Async(ctx, domain, api.List)
//	count := async.Async(ctx, domain, api.UnreadCount)
//	items, err := list.Await()
//	n, err := count.Await()
//
// If the context is already cancelled when Async is called, the function is
// not run and the future completes with the context error.
package async
