/*
Package qsf defines the in-memory survey document model and its serialization
into the Qualtrics QSF import format.

The model mirrors the document the compiler guarantees invariants over:
Questions owned by Blocks, Blocks referenced by Flow elements, document-level
embedded-data defaults, and a fixed schema version header. It is deliberately
decoupled from how questions are generated; the compiler package constructs a
Document and this package turns it into the exact JSON shape the import
pipeline accepts.

Serialization is deterministic: field order is fixed by struct tags, element
order follows the Document's slices, and no timestamps or random values are
introduced, so identical Documents encode to byte-identical files.
*/
package qsf
