package parquet

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xitongsys/parquet-go-source/writerfile"
	pq "github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
	"go.uber.org/zap"

	"github.com/mdubravic83/POtranslate/internal"
	"github.com/mdubravic83/POtranslate/internal/translation"
)

const DefaultBatchSizeNumRecords = 10000

// OutcomeRow is one entry of one job, flattened for analytics.
type OutcomeRow struct {
	JobID      string `parquet:"name=job_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Filename   string `parquet:"name=filename, type=BYTE_ARRAY, convertedtype=UTF8"`
	SourceLang string `parquet:"name=source_lang, type=BYTE_ARRAY, convertedtype=UTF8"`
	TargetLang string `parquet:"name=target_lang, type=BYTE_ARRAY, convertedtype=UTF8"`
	CreatedAt  int64  `parquet:"name=created_at, type=INT64, convertedtype=TIMESTAMP_MICROS"`
	Position   int32  `parquet:"name=position, type=INT32"`
	MsgID      string `parquet:"name=msgid, type=BYTE_ARRAY, convertedtype=UTF8"`
	MsgStr     string `parquet:"name=msgstr, type=BYTE_ARRAY, convertedtype=UTF8"`
	Translated string `parquet:"name=translated, type=BYTE_ARRAY, convertedtype=UTF8"`
	Status     string `parquet:"name=status, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// Rows flattens a job into one row per outcome, in entry order.
func Rows(job *translation.Job) []OutcomeRow {
	rows := make([]OutcomeRow, 0, len(job.Entries))
	for i, o := range job.Entries {
		rows = append(rows, OutcomeRow{
			JobID:      job.ID,
			Filename:   job.Filename,
			SourceLang: job.SourceLang,
			TargetLang: job.TargetLang,
			CreatedAt:  job.CreatedAt.UnixMicro(),
			Position:   int32(i),
			MsgID:      o.MsgID,
			MsgStr:     o.MsgStr,
			Translated: o.Translated,
			Status:     string(o.Status),
		})
	}
	return rows
}

type Option func(*Preserver)

func WithLogger(logger *zap.Logger) Option {
	return func(p *Preserver) {
		p.logger = logger
	}
}

func WithRepository(r internal.Repository) Option {
	return func(p *Preserver) {
		p.repository = r
	}
}

func WithBatchSizeNumRecords(n int) Option {
	return func(p *Preserver) {
		p.batchSize = n
	}
}

// Preserver buffers rows and writes them as numbered parquet files, one per
// full batch.
type Preserver struct {
	repository internal.Repository
	batchSize  int
	logger     *zap.Logger

	buffer  []OutcomeRow
	files   []string
	written int
}

func New(opts ...Option) (*Preserver, error) {
	p := &Preserver{
		batchSize: DefaultBatchSizeNumRecords,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.repository == nil {
		return nil, fmt.Errorf("parquet preserver: repository is required")
	}
	if p.batchSize <= 0 {
		p.batchSize = DefaultBatchSizeNumRecords
	}
	return p, nil
}

func (p *Preserver) Preserve(ctx context.Context, rows ...OutcomeRow) error {
	for _, row := range rows {
		p.buffer = append(p.buffer, row)
		if len(p.buffer) >= p.batchSize {
			if err := p.Flush(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flush writes buffered rows, if any, to the next file.
func (p *Preserver) Flush(ctx context.Context) error {
	if len(p.buffer) == 0 {
		return nil
	}

	b, err := Encode(p.buffer)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("outcomes-%05d.parquet", len(p.files))
	if err := p.repository.Write(ctx, key, bytes.NewReader(b)); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}

	p.logger.Info("wrote parquet file",
		zap.String("key", key),
		zap.Int("rows", len(p.buffer)),
		zap.Int("bytes", len(b)),
	)
	p.files = append(p.files, key)
	p.written += len(p.buffer)
	p.buffer = p.buffer[:0]
	return nil
}

// Files lists the keys written so far.
func (p *Preserver) Files() []string {
	return append([]string(nil), p.files...)
}

// NumRecordsWritten counts rows that reached the repository.
func (p *Preserver) NumRecordsWritten() int {
	return p.written
}

// Encode renders rows as a snappy compressed parquet file.
func Encode(rows []OutcomeRow) ([]byte, error) {
	var buf bytes.Buffer
	pf := writerfile.NewWriterFile(&buf)

	pw, err := writer.NewParquetWriter(pf, new(OutcomeRow), 1)
	if err != nil {
		return nil, fmt.Errorf("creating parquet writer: %w", err)
	}
	pw.CompressionType = pq.CompressionCodec_SNAPPY

	for _, row := range rows {
		if err := pw.Write(row); err != nil {
			return nil, fmt.Errorf("writing parquet row: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("finishing parquet file: %w", err)
	}
	return buf.Bytes(), nil
}
