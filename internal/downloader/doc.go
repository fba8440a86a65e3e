// Package downloader runs one download per (file, folder) pair concurrently,
// relays transfer progress into a shared progress board, and collects one
// outcome per job.
//
// A job whose destination already exists is skipped. A failing job never
// stops the others: failures are classified as service or unknown errors,
// reported on their own line and recorded in the run result.
package downloader
