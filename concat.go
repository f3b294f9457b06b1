package charred

import "io"

// RowSink is the writer's row-reduction interface spec.md section 6 routes
// bulk-concatenation output through: a function that accepts one
// materialized row at a time, mirroring the reduce-style callback a
// CSVWriter.WriteRow closure naturally provides.
type RowSink func(row interface{}) error

// ConcatCSV is the bulk-concatenation transducer of spec.md section 6: it
// opens each input in turn with newReader, streams its rows into sink, and
// when skipHeaders is true discards the first row of every input after the
// first. Each input's CSVReader is closed before the next is opened,
// regardless of error.
func ConcatCSV(skipHeaders bool, sink RowSink, newReader ...func() (*CSVReader, error)) error {
	for i, open := range newReader {
		r, err := open()
		if err != nil {
			return err
		}

		err = concatOne(r, skipHeaders && i > 0, sink)
		closeErr := r.Close()
		if err != nil {
			return err
		}
		if closeErr != nil {
			return closeErr
		}
	}
	return nil
}

func concatOne(r *CSVReader, skipHeader bool, sink RowSink) error {
	first := true
	for {
		row, err := r.ReadRow()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if first {
			first = false
			if skipHeader {
				continue
			}
		}
		if err := sink(row); err != nil {
			return err
		}
	}
}

// WriterSink adapts a CSVWriter into a RowSink, stringifying each row's
// fields through the writer's own Stringify policy. Row values that are not
// already []interface{} (e.g. a single scalar) are rejected with
// ErrInputShape.
func WriterSink(w *CSVWriter) RowSink {
	return func(row interface{}) error {
		fields, ok := row.([]interface{})
		if !ok {
			return newInputShapeErr(0, 0, "concatenation sink expected a row of fields, got %T", row)
		}
		return w.WriteRow(fields)
	}
}
