package logging

import "time"

func field(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Typed field constructors.

func String(key, value string) Field         { return field(key, value) }
func Int(key string, value int) Field        { return field(key, value) }
func Uint64(key string, value uint64) Field  { return field(key, value) }
func Float64(key string, value float64) Field { return field(key, value) }
func Bool(key string, value bool) Field      { return field(key, value) }
func Any(key string, value any) Field        { return field(key, value) }

// Duration renders as a human-readable string, not nanoseconds.
func Duration(key string, value time.Duration) Field {
	return field(key, value.String())
}

// Error attaches the fault under the "error" key; nil stays nil so the
// key still appears on lines that log an outcome either way.
func Error(err error) Field {
	if err == nil {
		return field("error", nil)
	}
	return field("error", err.Error())
}

// Domain fields, so call sites agree on key names.

func Component(name string) Field { return String("component", name) }
func RunID(id string) Field       { return String("run_id", id) }
func FittingID(id uint64) Field   { return Uint64("fitting_id", id) }
func SegmentID(id uint64) Field   { return Uint64("segment_id", id) }
func Kind(kind string) Field      { return String("kind", kind) }
func Pass(name string) Field      { return String("pass", name) }
func Param(name string) Field     { return String("param", name) }
func Operation(op string) Field   { return String("operation", op) }
func Count(n int) Field           { return Int("count", n) }
func Path(p string) Field         { return String("path", p) }

func Latency(d time.Duration) Field { return Duration("latency", d) }
