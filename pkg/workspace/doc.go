/*
Package workspace tracks the set of open notebook documents.

It provides high-level abstractions for opening documents with their kernel
sessions, serializing concurrent access per document, and sweeping snapshots
of unsaved work into a snapshot store.
*/
package workspace
