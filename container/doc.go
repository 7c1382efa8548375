// Package container implements the BPX container engine: the section table,
// the whole-container encoder and decoder, the save-mode optimizer and the
// public Container facade.
//
// A Container owns its IO backend exclusively. Sections are created through
// the table, mutated through scoped guards obtained from Open or Load, and
// persisted by Save. Save classifies the pending modifications to pick the
// cheapest safe rewrite: a full regeneration, a header-only write, or one of
// the patch-in-place paths. With WithRevertOnSaveFailure, the whole rewrite
// is staged in scratch storage and committed with a single copy, so a
// failing save leaves the backend untouched.
package container
