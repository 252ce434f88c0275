// Package resource holds the managed collection: its records, input rules,
// list windows, SQLite persistence and the service that runs every mutation.
//
// Each write follows one path: validate, load and authorise (update and
// delete), persist, then publish exactly one event to the notifier. A
// failure at any step stops the path; nothing is published for a write that
// did not land.
package resource
