// Package log is a small wrapper around the standard library logger that
// gives every basket component its own named logger.
//
// Every line carries a `[name>]` prefix so output from the aggregator, the
// cache and each grocery source can be told apart and grepped:
//
//	2024/05/01 10:00:00.000000 INFO [aggregator>] fan-out over 7 sources
//	2024/05/01 10:00:01.000000 WARN [sources/zepto>] location picker not found
//
// # Usage
//
//	l := log.ForService("cache")
//	l.Infof("found %d related searches", n)
//	l.Debugf("scanned keys: %v", keys) // only when debug is enabled
//
// Sources derive child loggers so their lines share a common prefix:
//
//	l := log.ForService("sources").Named("zepto") // [sources/zepto>]
//
// # Debug output
//
// Debug lines are dropped unless enabled globally (SetGlobalDebug, the CLI
// --debug flag) or for a set of services (EnableDebugFor, or the
// log.debug_services config list passed to Configure).
//
// # Output
//
// SetOutput redirects every existing and future logger, which tests use to
// capture output in a bytes.Buffer.
package log
