// Package logger builds *slog.Logger values with functional options and
// provides attribute helpers that keep key names consistent.
//
// New picks a text or JSON handler and, when context extractors are given,
// wraps it so attributes pulled from the context (request id, environment)
// land on every record. WithEnvironment applies the level and format preset
// of development, staging or production; Config maps APP_ENV, LOG_LEVEL and
// LOG_FORMAT onto the options.
//
//	opts, err := cfg.Options()
//	if err != nil {
//	    return err
//	}
//	log := logger.New(append(opts,
//	    logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)...)
//
//	log.InfoContext(ctx, "subscription renewed",
//	    logger.SubjectID(sub.SubjectID),
//	    logger.SubscriptionID(sub.ID),
//	)
//
// Error and Errors return an empty attribute for nil errors, so they can be
// passed unconditionally.
package logger
