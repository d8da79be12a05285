// Package logging builds the relay's log/slog logger.
//
// The handler returned by New adds request_id, trace_id and span_id from the
// context and, when redaction is on, masks NHS numbers, dates, postcodes,
// e-mail addresses and credentials in attribute values:
//
//	logger, err := logging.New(logging.FromConfig(&cfg.Logging))
//	logger.InfoContext(ctx, "upstream failed", "body", body)
//
// The level can be changed while running with SetLevel; loggers derived
// with With share it.
package logging
