package provider

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/floor-layout/backend/internal/config"
	"github.com/floor-layout/backend/internal/models"
)

// DefaultChunkSize bounds the number of values in a single IN list.
const DefaultChunkSize = 500

// LiveOptions names the external tables and columns the live provider reads.
type LiveOptions struct {
	Driver       string
	LinkedServer string
	ChunkSize    int

	CassetteTable    string
	CassetteIDColumn string
	PositionColumn   string
	LocationColumn   string

	WipTable          string
	ChipIDColumn      string
	GradeColumn       string
	ModelNoColumn     string
	StageIDColumn     string
	OpIDColumn        string
	WipCassetteColumn string
}

// LiveOptionsFromConfig maps the live source configuration onto LiveOptions.
func LiveOptionsFromConfig(c config.LiveConfig) LiveOptions {
	return LiveOptions{
		Driver:            c.Driver,
		LinkedServer:      c.LinkedServer,
		ChunkSize:         c.ChunkSize,
		CassetteTable:     c.CassetteTable,
		CassetteIDColumn:  c.CassetteIDColumn,
		PositionColumn:    c.PositionColumn,
		LocationColumn:    c.LocationColumn,
		WipTable:          c.WipTable,
		ChipIDColumn:      c.ChipIDColumn,
		GradeColumn:       c.GradeColumn,
		ModelNoColumn:     c.ModelNoColumn,
		StageIDColumn:     c.StageIDColumn,
		OpIDColumn:        c.OpIDColumn,
		WipCassetteColumn: c.WipCstColumn,
	}
}

func (o LiveOptions) validate() error {
	idents := map[string]string{
		"cassetteTable":       o.CassetteTable,
		"cassetteIdColumn":    o.CassetteIDColumn,
		"positionColumn":      o.PositionColumn,
		"locationColumn":      o.LocationColumn,
		"wipTable":            o.WipTable,
		"chipIdColumn":        o.ChipIDColumn,
		"gradeColumn":         o.GradeColumn,
		"modelNoColumn":       o.ModelNoColumn,
		"stageIdColumn":       o.StageIDColumn,
		"opIdColumn":          o.OpIDColumn,
		"wipCassetteIdColumn": o.WipCassetteColumn,
	}
	for name, v := range idents {
		if !validIdent(v) {
			return fmt.Errorf("live source %s: invalid identifier %q", name, v)
		}
	}
	if o.LinkedServer != "" && !validIdent(o.LinkedServer) {
		return fmt.Errorf("live source linkedServer: invalid identifier %q", o.LinkedServer)
	}
	return nil
}

// LiveProvider reads cassettes and WIP rows from the manufacturing database.
type LiveProvider struct {
	db      *sql.DB
	opts    LiveOptions
	builder queryBuilder
	log     *log.Logger
}

// NewLiveProvider creates a LiveProvider over db after validating opts.
func NewLiveProvider(db *sql.DB, opts LiveOptions, logger *log.Logger) (*LiveProvider, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if logger == nil {
		logger = log.Default().WithPrefix("provider")
	}
	return &LiveProvider{
		db:      db,
		opts:    opts,
		builder: queryBuilder{link: opts.LinkedServer, driver: opts.Driver},
		log:     logger,
	}, nil
}

// Mode implements Provider.
func (p *LiveProvider) Mode() string { return ModeLive }

type cassetteRef struct {
	code  string
	index int
}

// WipByBins implements Provider. Cassettes are resolved for the bin codes
// first, then WIP rows are attached to them by cassette id. Cassettes
// without WIP rows keep an empty list.
func (p *LiveProvider) WipByBins(ctx context.Context, codes []string) (map[string][]models.Cassette, error) {
	codes = uniqueCodes(codes)
	result := make(map[string][]models.Cassette, len(codes))
	if len(codes) == 0 {
		return result, nil
	}
	for _, code := range codes {
		result[code] = []models.Cassette{}
	}

	refs := make(map[string][]cassetteRef)
	var cassetteIDs []string

	cstQuery := selectIn{
		Columns: []string{p.opts.LocationColumn, p.opts.CassetteIDColumn, p.opts.PositionColumn},
		Table:   p.opts.CassetteTable,
		Key:     p.opts.LocationColumn,
	}
	for _, chunk := range chunks(codes, p.opts.ChunkSize) {
		err := p.query(ctx, cstQuery, chunk, func(rows *sql.Rows) error {
			var (
				location   string
				cassetteID sql.NullString
				position   sql.NullInt64
			)
			if err := rows.Scan(&location, &cassetteID, &position); err != nil {
				return err
			}
			// Rows without a cassette carry nothing to show.
			if _, ok := result[location]; !ok || !cassetteID.Valid {
				return nil
			}
			pos := 1
			if position.Valid {
				pos = int(position.Int64)
			}
			id := cassetteID.String
			if _, ok := refs[id]; !ok {
				cassetteIDs = append(cassetteIDs, id)
			}
			refs[id] = append(refs[id], cassetteRef{code: location, index: len(result[location])})
			result[location] = append(result[location], models.Cassette{
				CassetteID: id,
				Position:   pos,
				Wips:       []models.Wip{},
			})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("query cassettes: %w", err)
		}
	}

	if len(cassetteIDs) == 0 {
		return result, nil
	}

	wipQuery := selectIn{
		Columns: []string{
			p.opts.WipCassetteColumn, p.opts.ChipIDColumn, p.opts.GradeColumn,
			p.opts.ModelNoColumn, p.opts.StageIDColumn, p.opts.OpIDColumn,
		},
		Table: p.opts.WipTable,
		Key:   p.opts.WipCassetteColumn,
	}
	for _, chunk := range chunks(cassetteIDs, p.opts.ChunkSize) {
		err := p.query(ctx, wipQuery, chunk, func(rows *sql.Rows) error {
			var cassetteID string
			var chip, grade, model, stage, op sql.NullString
			if err := rows.Scan(&cassetteID, &chip, &grade, &model, &stage, &op); err != nil {
				return err
			}
			w := models.Wip{
				ChipID:  chip.String,
				Grade:   grade.String,
				ModelNo: model.String,
				StageID: stage.String,
				OpID:    op.String,
			}
			for _, ref := range refs[cassetteID] {
				c := &result[ref.code][ref.index]
				c.Wips = append(c.Wips, w)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("query wips: %w", err)
		}
	}

	p.log.Debug("wip lookup", "bins", len(codes), "cassettes", len(cassetteIDs))
	return result, nil
}

// CountsByBins implements Provider with a grouped cassette count per location.
func (p *LiveProvider) CountsByBins(ctx context.Context, codes []string) (map[string]int, error) {
	codes = uniqueCodes(codes)
	result := make(map[string]int, len(codes))
	if len(codes) == 0 {
		return result, nil
	}
	for _, code := range codes {
		result[code] = 0
	}

	q := selectIn{
		Columns: []string{p.opts.LocationColumn, "COUNT(" + p.opts.CassetteIDColumn + ")"},
		Table:   p.opts.CassetteTable,
		Key:     p.opts.LocationColumn,
		GroupBy: p.opts.LocationColumn,
	}
	for _, chunk := range chunks(codes, p.opts.ChunkSize) {
		err := p.query(ctx, q, chunk, func(rows *sql.Rows) error {
			var location string
			var n int64
			if err := rows.Scan(&location, &n); err != nil {
				return err
			}
			if _, ok := result[location]; ok {
				result[location] += int(n)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("query counts: %w", err)
		}
	}
	return result, nil
}

// query runs q for values and hands each row to fn.
func (p *LiveProvider) query(ctx context.Context, q selectIn, values []string, fn func(*sql.Rows) error) error {
	stmt, args, err := p.builder.build(q, values)
	if err != nil {
		return err
	}
	rows, err := p.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
