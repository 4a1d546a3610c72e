// Package logging provides structured logging for Polaris built on
// log/slog.
//
// The Logger wraps slog with two additions: automatic redaction of
// credentials and applicant identifiers (passport numbers, emails, phone
// numbers, IBANs) before values reach the handler, and context-aware
// logging that extracts pipeline fields (request_id, source_id, country,
// category, candidate_id, actor) from a context.Context.
//
// Typical usage:
//
//	logger, err := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	    Redact: true,
//	})
//	if err != nil {
//	    return err
//	}
//
//	log := logger.WithComponent("pipeline")
//	log.InfoContext(ctx, "fetch completed", "status", "success")
package logging
