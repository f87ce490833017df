// Package stats records how many requests each operator has ever been
// assigned, per channel.
//
// Counters are observability only and never feed scheduling decisions: the
// engine treats the recorder as best-effort and a recording failure never
// fails a registration.
//
// Two implementations are provided: MemoryRecorder for single-process
// deployments and tests, and RedisRecorder for shared counters across
// restarts or replicas.
package stats
