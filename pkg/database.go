package converter

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	sqlx "github.com/jmoiron/sqlx" //make alias name the package to sqlx
)

func ConnectToDatabase(user string, pass string, host string, dbname string) (*sqlx.DB, error) {
	port := "3306"
	dbURI := fmt.Sprintf("%s:%s@(%s:%s)/%s?parseTime=true", user, pass, host, port, dbname)
	db, err := sqlx.Connect("mysql", dbURI)
	return db, err
}

type ModuleGeometryEntry struct {
	Module            string `db:"Module"`
	RodsPerRow        int    `db:"RodsPerRow"`
	Rows              int    `db:"NRows"`
	RodsPerGap        int    `db:"RodsPerGap"`
	RowOffset         int    `db:"RowOffset"`
	TotalRowOffset    int    `db:"TotalRowOffset"`
	TotalColumnOffset int    `db:"TotalColumnOffset"`
}

type SegmentationEntry struct {
	RodsPerGap        int `db:"RodsPerGap"`
	EMBound1          int `db:"EMBound1"`
	EMBound2          int `db:"EMBound2"`
	HADRowsPerSegment int `db:"HadRowsPerSegment"`
}

const (
	moduleGeometryQuery = "SELECT Module, RodsPerRow, NRows, RodsPerGap, RowOffset, TotalRowOffset, TotalColumnOffset FROM ZdcGeometry WHERE MinRun <= ? and MaxRun >= ? ORDER BY Module"
	segmentationQuery   = "SELECT RodsPerGap, EMBound1, EMBound2, HadRowsPerSegment FROM ZdcSegmentation WHERE MinRun <= ? and MaxRun >= ?"
)

// LoadGeometryFromDB returns base with the constants valid for runNumber
// replaced by the ones stored in the conditions database. Modules or
// segmentation missing from the database keep the base values.
func LoadGeometryFromDB(db *sqlx.DB, runNumber int, base GeometryConfig, verbosity int) (GeometryConfig, error) {
	geo := base
	geo.EMSegmentBounds = append([]int(nil), base.EMSegmentBounds...)
	geo.Modules = append([]ModuleConfig(nil), base.Modules...)

	if verbosity > 0 {
		logger.Info(fmt.Sprintf("Reading geometry for run %d from database", runNumber), "database")
	}
	if verbosity > 2 {
		logger.Info(fmt.Sprintf("Query: %s", moduleGeometryQuery), "database")
	}

	rows, err := db.Queryx(moduleGeometryQuery, runNumber, runNumber)
	if err != nil {
		return base, fmt.Errorf("error querying database: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		result := ModuleGeometryEntry{}
		if err := rows.StructScan(&result); err != nil {
			return base, fmt.Errorf("error scanning DB row: %w", err)
		}
		m, ok := ParseModule(result.Module)
		if !ok || int(m) >= len(geo.Modules) {
			return base, fmt.Errorf("unknown module %q in geometry table", result.Module)
		}
		geo.Modules[m] = ModuleConfig{
			Name:              m.String(),
			RodsPerRow:        result.RodsPerRow,
			Rows:              result.Rows,
			RodsPerGap:        result.RodsPerGap,
			RowOffset:         result.RowOffset,
			TotalRowOffset:    result.TotalRowOffset,
			TotalColumnOffset: result.TotalColumnOffset,
		}
	}
	if err := rows.Err(); err != nil {
		return base, fmt.Errorf("error reading geometry rows: %w", err)
	}

	var segmentation []SegmentationEntry
	if err := db.Select(&segmentation, segmentationQuery, runNumber, runNumber); err != nil {
		return base, fmt.Errorf("error querying database: %w", err)
	}
	if len(segmentation) > 0 {
		s := segmentation[0]
		geo.RodsPerGap = s.RodsPerGap
		geo.EMSegmentBounds = []int{s.EMBound1, s.EMBound2}
		geo.HADRowsPerSegment = s.HADRowsPerSegment
	}
	return geo, nil
}

// GeometryForRun resolves the configured geometry and, unless NoDB is set,
// applies the conditions database for the configured run on top of it.
func GeometryForRun(config Configuration) (GeometryConfig, error) {
	geoConfig, err := config.ResolveGeometry()
	if err != nil {
		return geoConfig, err
	}
	if config.NoDB {
		return geoConfig, nil
	}

	dbConn, err := ConnectToDatabase(config.User, config.Passwd, config.Host, config.DBName)
	if err != nil {
		return geoConfig, fmt.Errorf("Error connection to database: %w", err)
	}
	defer dbConn.Close()
	return LoadGeometryFromDB(dbConn, config.RunNumber, geoConfig, config.Verbosity)
}
