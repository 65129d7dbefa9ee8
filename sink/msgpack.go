package sink

import (
	"bufio"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/xorgen"
	"github.com/syssam/xorgen/generator"
)

// Record is one msgpack-encoded entry of the stream. The first record of
// a table carries its column names and no values; each following record
// holds one row.
type Record struct {
	Table   string   `msgpack:"t"`
	Columns []string `msgpack:"c,omitempty"`
	Values  []any    `msgpack:"v"`
}

// Msgpack is a Sink encoding rows to a stream. Records of tables written
// in parallel are interleaved; each record names its table.
type Msgpack struct {
	mu  sync.Mutex
	buf *bufio.Writer
	enc *msgpack.Encoder
}

// NewMsgpack returns a sink writing to w. Closing the sink flushes the
// stream but does not close w.
func NewMsgpack(w io.Writer) *Msgpack {
	buf := bufio.NewWriter(w)
	return &Msgpack{buf: buf, enc: msgpack.NewEncoder(buf)}
}

// Open writes the header record of table.
func (m *Msgpack) Open(_ context.Context, table string, columns []string) (Writer, error) {
	if len(columns) == 0 {
		return nil, xorgen.NewSinkError(table, errors.New("no columns"))
	}
	if err := m.encode(&Record{Table: table, Columns: columns}); err != nil {
		return nil, xorgen.NewSinkError(table, err)
	}
	return &msgpackWriter{sink: m, table: table, columns: len(columns)}, nil
}

// Close flushes buffered records.
func (m *Msgpack) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buf.Flush()
}

func (m *Msgpack) encode(r *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enc.Encode(r)
}

type msgpackWriter struct {
	sink    *Msgpack
	table   string
	columns int
	stats   Stats
}

func (w *msgpackWriter) Write(ctx context.Context, row []generator.Value) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(row) != w.columns {
		return xorgen.NewSinkError(w.table, errors.New("row width does not match the columns"))
	}
	vals := make([]any, len(row))
	for i, v := range row {
		vals[i] = wireValue(v)
	}
	if err := w.sink.encode(&Record{Table: w.table, Values: vals}); err != nil {
		return xorgen.NewSinkError(w.table, err)
	}
	w.stats.Rows++
	w.stats.Batches++
	return nil
}

func (w *msgpackWriter) Close(context.Context) error { return nil }

func (w *msgpackWriter) Stats() Stats { return w.stats }

// wireValue maps a value to a type msgpack encodes natively. Decimals,
// big integers and UUIDs travel as strings.
func wireValue(v generator.Value) any {
	switch v.Kind() {
	case generator.KindDecimal, generator.KindUUID, generator.KindBigInt:
		return v.String()
	case generator.KindTime:
		t, _ := v.Time()
		return t.UTC().Truncate(time.Microsecond)
	case generator.KindRow:
		row := v.Row()
		out := make([]any, len(row))
		for i, c := range row {
			out[i] = wireValue(generator.ValueOf(c))
		}
		return out
	default:
		return v.Any()
	}
}

// ReadRecords decodes every record of a msgpack stream. Integers decode
// as int64 and floats as float64.
func ReadRecords(r io.Reader) ([]Record, error) {
	dec := msgpack.NewDecoder(r)
	dec.UseLooseInterfaceDecoding(true)
	var records []Record
	for {
		var rec Record
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
}
