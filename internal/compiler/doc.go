/*
Package compiler assembles a referentially-correct survey document from
roster rows.

Construction is a multi-phase process driven by Build:

 1. Intro assembly: the identity block (name, email, team selector) is built
    directly, since its shape is fixed across survey types.

 2. Question instantiation: for each team, in roster order, the survey type's
    declarative template plan is resolved against the team's members and each
    resolved target set is handed to the catalog, which allocates ids and
    derives export tags.

 3. Block assembly: each team's accumulated questions become one block.

 4. Flow composition: the embedded-data declaration, the intro block
    reference, and one gated branch per team are ordered into the flow.

 5. Validation: the five document invariants (id uniqueness, question
    ownership, flow closure, export-tag uniqueness, choice-set provenance)
    are checked before the document is released to the caller. A document
    that fails any check is never returned.

All identifiers come from one Allocator scoped to the build, so repeated
builds from identical input are byte-for-byte reproducible and concurrent
builds cannot corrupt each other's id space.
*/
package compiler
