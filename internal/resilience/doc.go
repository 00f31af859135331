// Package resilience groups the fault-tolerance primitives that sit between
// the feed service and its upstreams:
//
//   - timeout bounds a single attempt and reports which attempt expired
//   - fallback chains one primary attempt to one fallback attempt
//   - limiter caps in-flight calls per upstream, admitting waiters in order
//   - circuitbreaker stops calling an upstream that keeps failing
//
// A source fetch composes them as
//
//	fallback.Run(ctx, id,
//	    func(ctx) { return timeout.Do(ctx, d, id, limiter.Call(ctx, l, fetch)) },
//	    func(ctx) { return timeout.Do(ctx, d, id+":fallback", fallbackFetch) })
//
// with the circuit breaker applied inside the upstream adapters. There is
// deliberately no retry loop: worst-case latency is two timeouts.
package resilience
