// Package pgstore implements the catalog source and the subscription, team
// and access stores on PostgreSQL using pgx.
//
// Schema changes ship as goose migrations embedded in Migrations and are
// applied with Migrate (see package pg).
//
// Concurrency guarantees come from the database: subscription writes are
// compare-and-swap updates on a version column, the trial ledger relies on
// the plugin_trials primary key, and override batches run in a single
// transaction.
package pgstore
