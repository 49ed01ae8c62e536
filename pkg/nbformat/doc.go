/*
Package nbformat implements the interchange format boundary: reading and
writing notebook documents as nbformat-style JSON.

The package is deliberately conservative about what it understands. Cell
records are mapped to and from domain cells; everything else (free-form
metadata, rich output records) is carried through as opaque maps so that
load(save(D)) reproduces D for any document that was itself produced by a
load, even when it was written by a different frontend.
*/
package nbformat
