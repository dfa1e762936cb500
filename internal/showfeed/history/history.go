package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"stagedates/internal/showfeed/history/db"
)

const (
	StatusOk      = "ok"
	StatusReduced = "reduced"
)

// Show is the outcome of one production within a run.
type Show struct {
	Slug    string
	Tier    string
	Events  int
	Fetched int
	Error   string
}

// Run is one complete scrape of every venue.
type Run struct {
	Id         string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     string
	OutputPath string
	Error      string
	Shows      []Show
}

// Store keeps the history of scrape runs in sqlite.
type Store struct {
	qry    *db.Queries
	makeTx db.MakeTx
}

func isRemote(path string) bool {
	for _, scheme := range []string{"libsql://", "https://", "http://"} {
		if strings.HasPrefix(path, scheme) {
			return true
		}
	}
	return false
}

// Open opens (or creates) the history database. path is a sqlite file,
// ":memory:" for a throwaway store, or a libsql:// url (with an authToken
// query parameter) for a remote database.
func Open(path string) (*sql.DB, error) {
	driver := "sqlite"
	if isRemote(path) {
		driver = "libsql"
	} else if path != ":memory:" {
		err := os.MkdirAll(filepath.Dir(path), 0755)
		if err != nil {
			return nil, err
		}
	}
	database, err := sql.Open(driver, path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}

	if driver == "sqlite" {
		// a single connection keeps :memory: databases alive and avoids
		// SQLITE_BUSY between writers
		database.SetMaxOpenConns(1)

		pragmas := []string{"pragma foreign_keys = on"}
		if path != ":memory:" {
			pragmas = append(pragmas, "pragma journal_mode = wal")
		}
		for _, pragma := range pragmas {
			_, err = database.Exec(pragma)
			if err != nil {
				database.Close()
				return nil, err
			}
		}
	}

	_, err = database.Exec(db.Schema)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("migrate history: %w", err)
	}
	return database, nil
}

func NewStore(database *sql.DB) Store {
	return Store{
		qry:    db.New(database),
		makeTx: db.NewMakeTx(database),
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Record saves a finished run together with its shows.
func (s Store) Record(ctx context.Context, run Run) error {
	tx, discard, commit, err := s.makeTx()
	if err != nil {
		return err
	}
	defer discard()

	err = tx.CreateRun(ctx, db.CreateRunParams{
		ID:         run.Id,
		Startedat:  run.StartedAt.Unix(),
		Finishedat: run.FinishedAt.Unix(),
		Status:     run.Status,
		Outputpath: run.OutputPath,
		Error:      nullString(run.Error),
	})
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	for _, show := range run.Shows {
		err = tx.CreateRunShow(ctx, db.CreateRunShowParams{
			Runid:          run.Id,
			Slug:           show.Slug,
			Tier:           show.Tier,
			Eventcount:     int64(show.Events),
			Sourcesfetched: int64(show.Fetched),
			Error:          nullString(show.Error),
		})
		if err != nil {
			return fmt.Errorf("create run show %s: %w", show.Slug, err)
		}
	}
	return commit()
}

// Recent returns the latest runs, newest first, in loc.
func (s Store) Recent(ctx context.Context, limit int, loc *time.Location) ([]Run, error) {
	rows, err := s.qry.GetRecentRuns(ctx, int64(limit))
	if err != nil {
		return nil, err
	}

	out := make([]Run, 0, len(rows))
	for _, row := range rows {
		showRows, err := s.qry.GetRunShows(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		shows := make([]Show, 0, len(showRows))
		for _, show := range showRows {
			shows = append(shows, Show{
				Slug:    show.Slug,
				Tier:    show.Tier,
				Events:  int(show.Eventcount),
				Fetched: int(show.Sourcesfetched),
				Error:   show.Error.String,
			})
		}
		out = append(out, Run{
			Id:         row.ID,
			StartedAt:  time.Unix(row.Startedat, 0).In(loc),
			FinishedAt: time.Unix(row.Finishedat, 0).In(loc),
			Status:     row.Status,
			OutputPath: row.Outputpath,
			Error:      row.Error.String,
			Shows:      shows,
		})
	}
	return out, nil
}

// Prune deletes every run started before the given time.
func (s Store) Prune(ctx context.Context, before time.Time) error {
	tx, discard, commit, err := s.makeTx()
	if err != nil {
		return err
	}
	defer discard()

	// remote databases do not enforce the cascade
	err = tx.DeleteRunShowsBefore(ctx, before.Unix())
	if err != nil {
		return err
	}
	err = tx.DeleteRunsBefore(ctx, before.Unix())
	if err != nil {
		return err
	}
	return commit()
}
