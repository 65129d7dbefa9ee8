// Package generator implements the value generators behind synthetic
// relational data sets.
//
// A table is produced by one driving generator (a Driver), polled with
// HasNext/Next until exhausted; every value it emits stands for one row.
// Columns that depend on the driving value are Dependents registered as
// listeners: they are never polled and update synchronously when the
// driver emits.
//
// # Generators
//
//   - CounterGenerator yields a bounded or unbounded integer sequence.
//   - SharedCounterGenerator draws ids from a SharedCounter shared by
//     several generators.
//   - CollectionOwnerGenerator walks owner ids through a RangeList and
//     yields the elements of each owner's collection, produced by a nested
//     CollectionElementGenerator or SlidingElementGenerator.
//   - HierarchyGenerator yields the leaves of a fixed-depth tree and their
//     materialized paths.
//   - QueryGenerator yields the rows of a SQL query, optionally through a
//     PostgreSQL server-side cursor.
//   - ToOneGenerator and UUIDGenerator are dependents mapping driver ids
//     to parent ids and to name-based UUIDs.
//
// # Range specs
//
// Owner and to-one generators take range entries "start,end:size" or
// "start,end:min-max", for example
//
//	[]string{"10", "1,4:2", "5,10:0"}
//
// where the leading argument is the generator's header (the invocation
// cap for owners, the first parent id for to-one). Entries with negative
// bounds describe entities without an owner.
//
// # Determinism
//
// Random choices come from a per-generator source seeded with WithSeed
// (DefaultSeed otherwise) and reseeded on every Init, so a re-initialized
// generator replays the same sequence.
//
// Generators are not safe for concurrent use, except SharedCounter.
package generator
