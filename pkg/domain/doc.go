/*
Package domain contains the core domain models for the Quire notebook engine.

It defines the fundamental entities of a notebook document: Cells, the ordered
CellSequence with its focus cursor, kernel metadata, and the error taxonomy
shared by every layer. This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture
principles.

# Key Entities

  - Cell: One unit of a notebook, either executable code or markdown narrative.
  - CellSequence: The ordered, mutable collection of cells plus the focus cursor.
  - Output: One execution output record attached to a code cell.
  - KernelSpec / KernelInfo / LanguageInfo: Metadata describing the interpreter
    backend, carried through the interchange format on save.
*/
package domain
