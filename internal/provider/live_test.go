package provider

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/floor-layout/backend/internal/config"
	"github.com/floor-layout/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLiveOptions() LiveOptions {
	return LiveOptions{
		Driver:            "sqlite",
		CassetteTable:     "r_cst_cst",
		CassetteIDColumn:  "cassette_id",
		PositionColumn:    "position",
		LocationColumn:    "location",
		WipTable:          "r_chip_wip_ods",
		ChipIDColumn:      "sheet_id_chip_id",
		GradeColumn:       "grade",
		ModelNoColumn:     "model_no",
		StageIDColumn:     "stage_id",
		OpIDColumn:        "op_id",
		WipCassetteColumn: "cassette_id",
	}
}

// openSourceDB creates a sqlite database shaped like the manufacturing source.
func openSourceDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "source.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	stmts := []string{
		`CREATE TABLE r_cst_cst (cassette_id TEXT, position INTEGER, location TEXT)`,
		`CREATE TABLE r_chip_wip_ods (sheet_id_chip_id TEXT, grade TEXT, model_no TEXT, stage_id TEXT, op_id TEXT, cassette_id TEXT)`,
		`INSERT INTO r_cst_cst VALUES ('CST-1', 1, 'A-01'), ('CST-2', NULL, 'A-01'), ('CST-3', 2, 'B-02'), ('CST-9', 1, 'Z-99')`,
		`INSERT INTO r_chip_wip_ods VALUES
			('S10-CH100', 'A', 'TX-2024', 'LITH', 'OP-200', 'CST-1'),
			('S10-CH101', NULL, 'TX-2024', 'ETCH', 'OP-210', 'CST-1'),
			('S11-CH200', 'B', 'RX-9900', 'CMP', 'OP-300', 'CST-3'),
			('S99-CH999', 'P', 'NM-100', 'DEP', 'OP-400', 'CST-X')`,
	}
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	return db
}

func TestLiveProvider_WipByBins(t *testing.T) {
	for _, chunk := range []int{0, 1, 2} {
		opts := testLiveOptions()
		opts.ChunkSize = chunk

		p, err := NewLiveProvider(openSourceDB(t), opts, nil)
		require.NoError(t, err)

		res, err := p.WipByBins(context.Background(), []string{"A-01", "B-02", "C-03", "A-01"})
		require.NoError(t, err)
		require.Len(t, res, 3)

		require.Len(t, res["A-01"], 2)
		first := res["A-01"][0]
		assert.Equal(t, "CST-1", first.CassetteID)
		assert.Equal(t, 1, first.Position)
		require.Len(t, first.Wips, 2)
		assert.Equal(t, "S10-CH100", first.Wips[0].ChipID)
		assert.Equal(t, "S10-CH101", first.Wips[1].ChipID)
		assert.Equal(t, "", first.Wips[1].Grade, "NULL grade reads as empty")

		second := res["A-01"][1]
		assert.Equal(t, "CST-2", second.CassetteID)
		assert.Equal(t, 1, second.Position, "NULL position defaults to 1")
		assert.NotNil(t, second.Wips)
		assert.Empty(t, second.Wips)

		assert.Equal(t, []models.Cassette{{
			CassetteID: "CST-3",
			Position:   2,
			Wips: []models.Wip{{
				ChipID: "S11-CH200", Grade: "B", ModelNo: "RX-9900", StageID: "CMP", OpID: "OP-300",
			}},
		}}, res["B-02"])

		assert.NotNil(t, res["C-03"])
		assert.Empty(t, res["C-03"])
		assert.NotContains(t, res, "Z-99")
	}
}

func TestLiveProvider_SkipsRowsWithoutCassette(t *testing.T) {
	db := openSourceDB(t)
	_, err := db.Exec(`INSERT INTO r_cst_cst VALUES (NULL, 3, 'A-01'), (NULL, 1, 'D-04')`)
	require.NoError(t, err)

	p, err := NewLiveProvider(db, testLiveOptions(), nil)
	require.NoError(t, err)

	res, err := p.WipByBins(context.Background(), []string{"A-01", "D-04"})
	require.NoError(t, err)
	require.Len(t, res["A-01"], 2)
	assert.Equal(t, "CST-1", res["A-01"][0].CassetteID)
	assert.Equal(t, "CST-2", res["A-01"][1].CassetteID)
	assert.NotNil(t, res["D-04"])
	assert.Empty(t, res["D-04"])

	counts, err := p.CountsByBins(context.Background(), []string{"A-01", "D-04"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"A-01": 2, "D-04": 0}, counts)
}

func TestLiveProvider_CountsByBins(t *testing.T) {
	opts := testLiveOptions()
	opts.ChunkSize = 1
	p, err := NewLiveProvider(openSourceDB(t), opts, nil)
	require.NoError(t, err)

	counts, err := p.CountsByBins(context.Background(), []string{"A-01", "B-02", "C-03"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"A-01": 2, "B-02": 1, "C-03": 0}, counts)
}

func TestLiveProvider_EmptyInputSkipsSource(t *testing.T) {
	db := openSourceDB(t)
	p, err := NewLiveProvider(db, testLiveOptions(), nil)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	wip, err := p.WipByBins(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, wip)

	counts, err := p.CountsByBins(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, counts)

	_, err = p.WipByBins(context.Background(), []string{"A-01"})
	assert.Error(t, err, "a closed source fails once it is actually queried")
}

func TestLiveProvider_RejectsBadIdentifiers(t *testing.T) {
	opts := testLiveOptions()
	opts.CassetteTable = "r_cst_cst; DROP TABLE x"
	_, err := NewLiveProvider(nil, opts, nil)
	assert.Error(t, err)

	opts = testLiveOptions()
	opts.LinkedServer = "LINK'"
	_, err = NewLiveProvider(nil, opts, nil)
	assert.Error(t, err)
}

func TestLiveOptionsFromConfig_DefaultsValidate(t *testing.T) {
	opts := LiveOptionsFromConfig(config.DefaultConfig().Data.Live)
	assert.Equal(t, "beolpptsn.r_cst_cst", opts.CassetteTable)
	assert.Equal(t, "cassette_id", opts.WipCassetteColumn)
	assert.NoError(t, opts.validate())
}
