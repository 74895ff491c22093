// Package pipeline runs request interceptors ahead of routing.
//
// Interceptors execute strictly in registration order. Each returns one of
// three results:
//   - Continue: pass the current request on unchanged
//   - Rewrite: replace the request for every later interceptor and the router
//   - ShortCircuit: stop with a final response; nothing else runs
//
// An interceptor error aborts the chain. The dispatcher treats it the same
// way as a failing route handler.
package pipeline
