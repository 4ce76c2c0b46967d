// Package export writes run histories to Parquet files for offline analysis
// in notebook and dataframe tooling.
package export

import (
	"context"
	"os"
	"path/filepath"

	"github.com/apache/arrow/go/v13/arrow"
	"github.com/apache/arrow/go/v13/arrow/array"
	"github.com/apache/arrow/go/v13/arrow/memory"
	"github.com/apache/arrow/go/v13/parquet"
	"github.com/apache/arrow/go/v13/parquet/compress"
	"github.com/apache/arrow/go/v13/parquet/file"
	"github.com/apache/arrow/go/v13/parquet/pqarrow"

	"github.com/theoryforge/lagrangia/pkg/errors"
	"github.com/theoryforge/lagrangia/pkg/persistence"
)

func historySchema() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{Name: "run_id", Type: arrow.BinaryTypes.String},
		{Name: "generation", Type: arrow.PrimitiveTypes.Int64},
		{Name: "best_fitness", Type: arrow.PrimitiveTypes.Float64},
		{Name: "delta_c", Type: arrow.PrimitiveTypes.Float64},
		{Name: "delta_alpha", Type: arrow.PrimitiveTypes.Float64},
		{Name: "delta_g", Type: arrow.PrimitiveTypes.Float64},
		{Name: "digits_c", Type: arrow.PrimitiveTypes.Int64},
		{Name: "digits_alpha", Type: arrow.PrimitiveTypes.Int64},
		{Name: "digits_g", Type: arrow.PrimitiveTypes.Int64},
		{Name: "phase", Type: arrow.BinaryTypes.String},
		{Name: "locked", Type: arrow.FixedWidthTypes.Boolean},
		{Name: "emergency", Type: arrow.FixedWidthTypes.Boolean},
		{Name: "evals_per_second", Type: arrow.PrimitiveTypes.Float64},
		{Name: "created_at", Type: arrow.PrimitiveTypes.Int64},
	}, nil)
}

// WriteRunHistory writes the records as a Parquet file at path, creating
// parent directories as needed.
func WriteRunHistory(path string, records []persistence.GenerationRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, errors.ExportFailed, "failed to create export directory")
	}

	schema := historySchema()
	builder := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer builder.Release()

	for _, r := range records {
		builder.Field(0).(*array.StringBuilder).Append(r.RunID)
		builder.Field(1).(*array.Int64Builder).Append(int64(r.Generation))
		builder.Field(2).(*array.Float64Builder).Append(r.BestFitness)
		builder.Field(3).(*array.Float64Builder).Append(r.DeltaC)
		builder.Field(4).(*array.Float64Builder).Append(r.DeltaAlpha)
		builder.Field(5).(*array.Float64Builder).Append(r.DeltaG)
		builder.Field(6).(*array.Int64Builder).Append(int64(r.DigitsC))
		builder.Field(7).(*array.Int64Builder).Append(int64(r.DigitsAlpha))
		builder.Field(8).(*array.Int64Builder).Append(int64(r.DigitsG))
		builder.Field(9).(*array.StringBuilder).Append(r.Phase)
		builder.Field(10).(*array.BooleanBuilder).Append(r.Locked)
		builder.Field(11).(*array.BooleanBuilder).Append(r.Emergency)
		builder.Field(12).(*array.Float64Builder).Append(r.EvalsPerSecond)
		builder.Field(13).(*array.Int64Builder).Append(r.CreatedAt)
	}

	rec := builder.NewRecord()
	defer rec.Release()

	table := array.NewTableFromRecords(schema, []arrow.Record{rec})
	defer table.Release()

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.ExportFailed, "failed to create export file")
	}
	defer f.Close()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	arrProps := pqarrow.NewArrowWriterProperties()

	chunkSize := table.NumRows()
	if chunkSize == 0 {
		chunkSize = 1
	}
	if err := pqarrow.WriteTable(table, f, chunkSize, props, arrProps); err != nil {
		return errors.WithFields(
			errors.Wrap(err, errors.ExportFailed, "failed to write parquet table"),
			errors.Fields{"path": path, "rows": len(records)},
		)
	}
	return nil
}

// ReadRunHistory reads back a Parquet file written by WriteRunHistory.
func ReadRunHistory(path string) ([]persistence.GenerationRecord, error) {
	reader, err := file.OpenParquetFile(path, false)
	if err != nil {
		return nil, errors.Wrap(err, errors.ExportFailed, "failed to open parquet file")
	}
	defer reader.Close()

	arrowReader, err := pqarrow.NewFileReader(reader, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		return nil, errors.Wrap(err, errors.ExportFailed, "failed to create arrow reader")
	}

	table, err := arrowReader.ReadTable(context.Background())
	if err != nil {
		return nil, errors.Wrap(err, errors.ExportFailed, "failed to read parquet table")
	}
	defer table.Release()

	records := make([]persistence.GenerationRecord, table.NumRows())

	schema := table.Schema()
	col := func(name string) *arrow.Column {
		indices := schema.FieldIndices(name)
		if len(indices) == 0 {
			return nil
		}
		return table.Column(indices[0])
	}

	str := func(name string, i int) string {
		return col(name).Data().Chunk(0).(*array.String).Value(i)
	}
	i64 := func(name string, i int) int64 {
		return col(name).Data().Chunk(0).(*array.Int64).Value(i)
	}
	f64 := func(name string, i int) float64 {
		return col(name).Data().Chunk(0).(*array.Float64).Value(i)
	}
	boolean := func(name string, i int) bool {
		return col(name).Data().Chunk(0).(*array.Boolean).Value(i)
	}

	for i := 0; i < int(table.NumRows()); i++ {
		records[i] = persistence.GenerationRecord{
			RunID:          str("run_id", i),
			Generation:     int(i64("generation", i)),
			BestFitness:    f64("best_fitness", i),
			DeltaC:         f64("delta_c", i),
			DeltaAlpha:     f64("delta_alpha", i),
			DeltaG:         f64("delta_g", i),
			DigitsC:        int(i64("digits_c", i)),
			DigitsAlpha:    int(i64("digits_alpha", i)),
			DigitsG:        int(i64("digits_g", i)),
			Phase:          str("phase", i),
			Locked:         boolean("locked", i),
			Emergency:      boolean("emergency", i),
			EvalsPerSecond: f64("evals_per_second", i),
			CreatedAt:      i64("created_at", i),
		}
	}

	return records, nil
}
