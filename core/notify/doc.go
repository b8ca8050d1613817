// Package notify delivers sync run outcomes.
//
// The reconciliation engine returns plain result structures and performs no
// notification itself; this package fans those results out to the
// configured sinks.
//
// # Reporters
//
//   - SlackReporter: posts the per-property summary to a Slack incoming
//     webhook, formatted with backticked code labels.
//   - LogReporter: writes the summary to the structured logger.
//   - ArchiveReporter: stores the summary as JSON in the object storage
//     bucket under reports/<date>/<run-id>.json for later inspection.
//   - MultiReporter: fans one summary out to several reporters; a failing
//     sink never suppresses the others.
//
// Delivery guarantees are the reporter's concern. The sync service treats
// reporting failures as log-worthy, never as run failures.
package notify
