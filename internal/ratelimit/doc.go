// Package ratelimit enforces a per-client fixed-window request limit backed
// by a ports.KeyValueStore.
//
// Each client has one RateWindow record under Prefix+client holding the
// request count and the window start. The record is read, updated in memory
// and written back. Those two store calls are not atomic: concurrent
// requests from one client on different replicas can both read count N and
// both write N+1, so the limit may be exceeded by the number of concurrent
// in-flight requests. The store contract offers no compare-and-set, and this
// slack is accepted.
//
// A denied request never rewrites the record, so a client hammering past the
// limit does not extend its own window.
//
// When the store fails, Config.FailOpen decides between allowing the request
// (degraded) and rejecting it.
package ratelimit
