// Package charred is a high-throughput CSV and JSON character-stream engine:
// a buffered character reader chains chunks from a background producer into
// a logically infinite stream, on top of which CSVReader/CSVWriter and
// JSONReader/JSONWriter tokenize and materialize values through pluggable
// visitor hooks.
package charred
