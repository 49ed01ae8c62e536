/*
Package dsl provides a fluent API for constructing notebooks in code.

It is meant for tests, fixtures, and programs that generate notebooks
without going through the interchange format by hand.
*/
package dsl
