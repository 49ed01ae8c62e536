/*
Package document implements the notebook document orchestrator.

A Document owns exactly one cell sequence and exactly one kernel session
and composes them into the high-level editing actions: add cell, delete
focused cell, run one cell, run all cells, restart kernel, save. It also
owns the validity gate: a path that is not an editable notebook marks the
document permanently invalid, and every mutating action is rejected with
domain.ErrInvalidDocument from then on.

Documents follow a single-writer discipline. Kernel execution is the only
operation that suspends, and it does so without holding the document lock:
the target cell is captured at submission time, so inserting or deleting
other cells while a run is outstanding stays possible and the in-flight
result lands only in the cell it was submitted for.
*/
package document
