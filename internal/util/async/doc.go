// Package async runs independent provisioning tasks concurrently.
//
// [RunParallel] starts every task, optionally bounded by a concurrency
// limit, waits for all of them and joins their errors.
package async
