/*
Package operation implements the batch engine: it walks the input tree,
uploads every identified record and accounts for every record in a ledger.

	+-------------+      +-------------+      +-------------+
	|   Batches   | ---> | Categories  | ---> |   Records   |
	| (input dir) |      | (manifest)  |      | (N workers) |
	+-------------+      +-------------+      +------+------+
	                                                 |
	                         +-----------------------+----------------+
	                         |                       |                |
	                      Gateway                  Files            Ledgers
	                      (upload)              (relocate)          (csv)

🎯 Purpose:
- Resolve each manifest filename to a real file
- Upload identified records under their derived key
- Relocate uploaded and unidentified files into the output tree
- Write the uploaded, not uploaded and skipped ledgers for each batch

🔄 Flow:
1. Batches are processed one at a time, in listing order
2. Each category must hold exactly one manifest, or the batch aborts
3. Records of a category run on a bounded worker pool
4. Outcomes are collected back into manifest order
5. Ledgers and the summary are flushed, then cleanup runs

⚡ Key Responsibilities:
  - A failed batch never stops the run; the error is reported at the end
  - A file that was not uploaded is never removed from the input tree
  - Manifest names must stay inside their category folder
  - move cleanup removes a source only after every record sharing it was relocated
  - remove-batch cleanup refuses to delete a folder holding unrelocated files
  - A dry run uploads to whatever gateway it is given and skips relocation

🔍 Example:

	engine, err := operation.New(operation.Options{
		InputRoot:  "/data/staged",
		OutputRoot: "/data/processed",
		Bucket:     "onboarding",
		Gateway:    gw,
		Files:      files.New(false),
	})
	summary, err := engine.Run(ctx)
*/
package operation
