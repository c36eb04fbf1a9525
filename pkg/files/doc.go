/*
Package files performs the filesystem side effects of a run: relocating
documents into the output tree and writing ledgers atomically.

	+-------------+        +-------------+
	|   Engine    | -----> |   Manager   |
	| (decisions) |        | (disk I/O)  |
	+-------------+        +------+------+
	                              |
	              +---------------+---------------+
	              |               |               |
	         CopyFile       RemoveFile     WriteFileAtomic

🎯 Purpose:
  - Copy a source document to its derived destination, and remove it once
    every copy has landed
  - Write ledgers and summaries via temp file + rename
  - Remove a processed batch directory when cleanup asks for it

⚡ Key Responsibilities:
  - Destination parents are created on demand; failure to create one is
    reported as ErrMissingParent so callers can log and continue
  - A dry-run Manager logs relocations and removals without performing them,
    while still writing ledgers

🔍 Example:

	fm := files.New(false)
	err := fm.CopyFile(ctx, "/in/ACME/Client IDs/ID1.PDF", "/out/ACME/Client IDs/id1_Q1.pdf")
*/
package files
