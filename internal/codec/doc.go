// Package codec converts application values to the column types offered by
// stores without native boolean, array or timestamp-with-fraction support.
//
// Lists and records are stored as JSON text, booleans as 0/1 integers and
// points in time as floating-point seconds since the Unix epoch. Decoding a
// list never fails: absent, empty or malformed text yields an empty list.
// Stores written by older clients contain such values and reads must keep
// working.
package codec
