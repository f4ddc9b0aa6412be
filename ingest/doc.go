// Package ingest turns delimited text records into numeric samples.
//
// Training records carry Columns fields: Columns-2 numeric features followed
// by a floor and a max-floor integer. The floor pair is collapsed into one
// engineered coordinate (0 for ground or top floor, 1 otherwise), so every
// sample has Columns-1 coordinates. Empty feature cells are imputed with the
// mean of the present values in the same column once all rows are read.
//
// Query records carry Columns-1 numeric fields and are never imputed.
package ingest
