package converter

import (
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

var geometryColumns = []string{"Module", "RodsPerRow", "NRows", "RodsPerGap", "RowOffset", "TotalRowOffset", "TotalColumnOffset"}

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "mysql"), mock
}

func TestLoadGeometryFromDB(t *testing.T) {
	db, mock := newMockDB(t)
	const run = 4021

	mock.ExpectQuery(regexp.QuoteMeta(moduleGeometryQuery)).
		WithArgs(run, run).
		WillReturnRows(sqlmock.NewRows(geometryColumns).
			AddRow("EM", 29, 11, 29, 0, 0, 15).
			AddRow("HAD1", 59, 12, 59, 0, 11, 0))
	mock.ExpectQuery(regexp.QuoteMeta(segmentationQuery)).
		WithArgs(run, run).
		WillReturnRows(sqlmock.NewRows([]string{"RodsPerGap", "EMBound1", "EMBound2", "HadRowsPerSegment"}).
			AddRow(29, 4, 8, 6))

	base := Run4Geometry()
	cfg, err := LoadGeometryFromDB(db, run, base, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}

	em, had1, had2 := cfg.Modules[EM], cfg.Modules[HAD1], cfg.Modules[HAD2]
	if em.Rows != 11 || em.TotalColumnOffset != 15 || em.Name != "EM" {
		t.Errorf("EM = %+v", em)
	}
	if had1.RodsPerRow != 59 || had1.RodsPerGap != 59 || had1.TotalRowOffset != 11 {
		t.Errorf("HAD1 = %+v", had1)
	}
	if had2 != base.Modules[HAD2] {
		t.Errorf("HAD2 missing from the database but changed: %+v", had2)
	}
	if cfg.EMSegmentBounds[0] != 4 || cfg.EMSegmentBounds[1] != 8 || cfg.HADRowsPerSegment != 6 {
		t.Errorf("segmentation = %v, %d", cfg.EMSegmentBounds, cfg.HADRowsPerSegment)
	}
	if base.Modules[EM].Rows != 26 || base.EMSegmentBounds[0] != 8 {
		t.Errorf("base geometry modified")
	}
}

func TestLoadGeometryFromDBEmpty(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(moduleGeometryQuery)).
		WithArgs(1, 1).
		WillReturnRows(sqlmock.NewRows(geometryColumns))
	mock.ExpectQuery(regexp.QuoteMeta(segmentationQuery)).
		WithArgs(1, 1).
		WillReturnRows(sqlmock.NewRows([]string{"RodsPerGap", "EMBound1", "EMBound2", "HadRowsPerSegment"}))

	base := Run4Geometry()
	cfg, err := LoadGeometryFromDB(db, 1, base, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("base geometry not kept: %v", err)
	}
	if cfg.RodsPerGap != base.RodsPerGap || cfg.Modules[HAD3] != base.Modules[HAD3] {
		t.Errorf("got %+v", cfg)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestLoadGeometryFromDBUnknownModule(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(moduleGeometryQuery)).
		WithArgs(7, 7).
		WillReturnRows(sqlmock.NewRows(geometryColumns).AddRow("HAD4", 29, 12, 29, 0, 62, 0))

	if _, err := LoadGeometryFromDB(db, 7, Run4Geometry(), 0); err == nil {
		t.Fatal("unknown module accepted")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestLoadGeometryFromDBQueryError(t *testing.T) {
	db, mock := newMockDB(t)
	errConn := errors.New("connection refused")
	mock.ExpectQuery(regexp.QuoteMeta(moduleGeometryQuery)).WithArgs(7, 7).WillReturnError(errConn)

	_, err := LoadGeometryFromDB(db, 7, Run4Geometry(), 0)
	if !errors.Is(err, errConn) {
		t.Errorf("got %v, want %v", err, errConn)
	}
}
