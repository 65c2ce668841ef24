// Package keys emulates auto-incrementing surrogate keys on stores that do
// not provide them natively.
//
// Every managed table gets a monotonic counter named "{table}_seq" and an
// insert-time rule named "{table}_id_trigger" that fills the id column
// from the counter when the inserting statement left it NULL. Repositories
// do not depend on the rule: they draw the next value through a Sequencer
// and assign it before inserting, so the rule only covers writers outside
// this service.
package keys
