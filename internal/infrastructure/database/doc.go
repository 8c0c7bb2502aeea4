// Package database provides the SQLite connection for the dead-letter
// spool. It handles file creation, WAL mode, busy timeout, and the
// single-writer pool settings SQLite needs; the schema itself lives
// with the spool in the deadletter package.
package database
