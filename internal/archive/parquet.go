package archive

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/parquet-go/parquet-go"

	"github.com/duckmesh/schemaprompt/internal/schema"
)

type ColumnsEncodeResult struct {
	Data        []byte
	RecordCount int64
}

type parquetColumn struct {
	Table         string  `parquet:"table"`
	TableComment  *string `parquet:"table_comment,optional"`
	Position      int32   `parquet:"position"`
	Column        string  `parquet:"column"`
	DataType      string  `parquet:"data_type"`
	ColumnComment *string `parquet:"column_comment,optional"`
	ForeignKey    *string `parquet:"foreign_key,optional"`
	PrimaryKey    bool    `parquet:"primary_key"`
}

// EncodeColumnsToParquet flattens a snapshot into one row per column, in
// snapshot order. Position is 1-based within its table.
func EncodeColumnsToParquet(snapshot schema.Snapshot) (ColumnsEncodeResult, error) {
	rows := make([]parquetColumn, 0, snapshot.ColumnCount())
	for _, table := range snapshot.Tables {
		for i, column := range table.Columns {
			rows = append(rows, parquetColumn{
				Table:         table.Name,
				TableComment:  table.Comment,
				Position:      int32(i + 1),
				Column:        column.Name,
				DataType:      column.DataType,
				ColumnComment: column.Comment,
				ForeignKey:    column.ForeignKeyRef,
				PrimaryKey:    slices.Contains(table.PrimaryKey, column.Name),
			})
		}
	}

	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[parquetColumn](buf)
	if len(rows) > 0 {
		if _, err := writer.Write(rows); err != nil {
			return ColumnsEncodeResult{}, fmt.Errorf("write parquet rows: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return ColumnsEncodeResult{}, fmt.Errorf("close parquet writer: %w", err)
	}

	return ColumnsEncodeResult{
		Data:        buf.Bytes(),
		RecordCount: int64(len(rows)),
	}, nil
}
