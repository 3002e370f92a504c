// Package ledger maintains timestamp ledger branches.
//
// A ledger branch shadows a main branch: each entry records an RFC 3161 proof for one
// commit of the main branch, and has two parents, the previous ledger state and the
// timestamped commit. Entries are only ever appended, and the ledger reference is only
// moved with a compare-and-swap from the head observed at the beginning of an append.
//
// When the main branch is rewritten (amend, rebase), the next entry is attached to the
// entry of the most recent commit shared by the rewritten branch and the ledger, so the
// first-parent history of the ledger follows the surviving main branch history.
package ledger
