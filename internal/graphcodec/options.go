package graphcodec

import "log/slog"

// Serializer and Deserializer are both configured with the same
// functional-options idiom: NewX(opts...) followed by WithY option
// constructors, one option struct field each.

// SerializerOption configures a Serializer.
type SerializerOption func(*Serializer)

// WithWriterVersion pins the binary header version the Serializer emits.
// The reference always emits VersionVarint (2); VersionFixed (1) exists
// for interop testing against readers that only understand the older,
// fixed-width header.
func WithWriterVersion(v int) SerializerOption {
	return func(s *Serializer) {
		if v == VersionFixed || v == VersionVarint {
			s.version = v
		}
	}
}

// WithSerializerMetrics enables Prometheus counters for lines scanned,
// vertices compacted, and bytes emitted.
func WithSerializerMetrics(enabled bool) SerializerOption {
	return func(s *Serializer) { s.metrics = enabled }
}

// WithSerializerLogger overrides the logger used for diagnostic messages.
func WithSerializerLogger(l *slog.Logger) SerializerOption {
	return func(s *Serializer) {
		if l != nil {
			s.logger = l
		}
	}
}

// DeserializerOption configures a Deserializer.
type DeserializerOption func(*Deserializer)

// WithDeserializerMetrics enables Prometheus counters for decoded lines
// and malformed-input diagnostics.
func WithDeserializerMetrics(enabled bool) DeserializerOption {
	return func(d *Deserializer) { d.metrics = enabled }
}

// WithDeserializerLogger overrides the logger used for diagnostic messages.
func WithDeserializerLogger(l *slog.Logger) DeserializerOption {
	return func(d *Deserializer) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithStrictTrailer makes Deserialize fail if bytes remain after the loop
// section instead of silently ignoring them. The reference reader does
// not enforce this; it is the "acceptable extension" named in the
// format's deserializer design.
func WithStrictTrailer(enabled bool) DeserializerOption {
	return func(d *Deserializer) { d.strictTrailer = enabled }
}
