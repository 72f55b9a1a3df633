// Package core provides the conversion logic for turning CSV uploads into SQL.
//
// This package contains all domain logic independent of any UI or transport
// layer. It is used by the web handlers and the csvdml command alike.
//
// # Pipeline
//
// A conversion runs these steps in order:
//
//  1. [CheckFileName] rejects anything not named *.csv (optionally compressed)
//  2. The body is decompressed if the name carries a compression suffix
//  3. [DecodeCSV] strips a BOM, checks UTF-8 and splits the header from the rows
//  4. [NormalizeColumns] lowercases header names and replaces spaces with "_"
//  5. [Statements] emits one INSERT per row
//
// [Service.Convert] wraps the pipeline with a concurrency limit, a result
// cache, verification, archiving, history and metrics.
//
// # Values
//
// Each cell is a [Cell]: either present text or missing. Missing cells, which
// the decoder produces for empty fields and the usual NA spellings, render as
// NULL. Present text is case-transformed, has its single quotes doubled, and
// is wrapped in single quotes.
//
// # Errors
//
// [DecodeError], [ParseError] and [ShapeError] describe a bad upload.
// [ErrInvalidFileType] and [ErrTooManyConversions] are sentinel errors the
// web layer maps to 400 and 503.
package core
