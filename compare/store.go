package compare

import (
	"database/sql"
	"encoding/json"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/LevanBokeria/autoemulate/core/model"
	"github.com/LevanBokeria/autoemulate/emulators"
	"github.com/LevanBokeria/autoemulate/pkg/errors"
)

// Store persists trial results under one directory: a gob artifact with the
// fitted emulator per result, plus a sqlite sidecar table holding one
// structured row per saved result. Load reconstructs a predict-capable
// emulator without the original training data.
type Store struct {
	db  *sql.DB
	dir string
}

const storeSchema = `
CREATE TABLE IF NOT EXISTS results (
	id              TEXT PRIMARY KEY,
	model           TEXT NOT NULL,
	x_chain         TEXT NOT NULL,
	y_chain         TEXT NOT NULL,
	config          TEXT NOT NULL,
	cv_score        REAL NOT NULL,
	train_score     REAL NOT NULL,
	test_score      REAL NOT NULL,
	secondary_score REAL NOT NULL,
	created_at      TEXT NOT NULL
);`

// OpenStore opens (creating if needed) the results store in dir.
func OpenStore(dir string) (*Store, error) {
	db, err := sql.Open("sqlite", filepath.Join(dir, "results.db"))
	if err != nil {
		return nil, errors.Wrap(err, "OpenStore")
	}
	if _, err := db.Exec(storeSchema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "OpenStore: creating results table")
	}
	return &Store{db: db, dir: dir}, nil
}

// Close releases the sqlite handle.
func (st *Store) Close() error { return st.db.Close() }

// Save writes the result's fitted emulator as a gob artifact and records its
// metadata row. Only representative results carry an emulator; saving a bare
// trial fails.
func (st *Store) Save(r *TrialResult) error {
	if r == nil || r.Emulator == nil {
		return errors.NewEmptyResultsError("Store.Save")
	}

	configJSON, err := json.Marshal(r.Config)
	if err != nil {
		return errors.Wrap(err, "Store.Save: encoding config")
	}

	if err := model.SaveModel(r.Emulator, st.artifactPath(r.ID)); err != nil {
		return errors.Wrap(err, "Store.Save: writing artifact")
	}

	_, err = st.db.Exec(`
		INSERT OR REPLACE INTO results
			(id, model, x_chain, y_chain, config, cv_score, train_score, test_score, secondary_score, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Model, r.XChain, r.YChain, string(configJSON),
		r.CVScore, r.TrainScore, r.TestScore, r.SecondaryScore,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return errors.Wrap(err, "Store.Save: inserting record")
	}
	return nil
}

// Load reconstructs a saved result by id. The returned result's Emulator is
// fitted and ready to predict.
func (st *Store) Load(id string) (*TrialResult, error) {
	row := st.db.QueryRow(`
		SELECT id, model, x_chain, y_chain, config, cv_score, train_score, test_score, secondary_score
		FROM results WHERE id = ?`, id)

	var r TrialResult
	var configJSON string
	err := row.Scan(&r.ID, &r.Model, &r.XChain, &r.YChain, &configJSON,
		&r.CVScore, &r.TrainScore, &r.TestScore, &r.SecondaryScore)
	if err == sql.ErrNoRows {
		return nil, errors.NewEmptyResultsError("Store.Load")
	}
	if err != nil {
		return nil, errors.Wrap(err, "Store.Load")
	}

	if err := json.Unmarshal([]byte(configJSON), &r.Config); err != nil {
		return nil, errors.Wrap(err, "Store.Load: decoding config")
	}

	te := &emulators.TransformedEmulator{}
	if err := model.LoadModel(te, st.artifactPath(id)); err != nil {
		return nil, errors.Wrap(err, "Store.Load: reading artifact")
	}
	r.Emulator = te
	r.Status = TrialOK
	return &r, nil
}

// List returns the metadata rows of all saved results, newest first, without
// loading artifacts.
func (st *Store) List() ([]*TrialResult, error) {
	rows, err := st.db.Query(`
		SELECT id, model, x_chain, y_chain, config, cv_score, train_score, test_score, secondary_score
		FROM results ORDER BY created_at DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "Store.List")
	}
	defer rows.Close()

	var results []*TrialResult
	for rows.Next() {
		var r TrialResult
		var configJSON string
		if err := rows.Scan(&r.ID, &r.Model, &r.XChain, &r.YChain, &configJSON,
			&r.CVScore, &r.TrainScore, &r.TestScore, &r.SecondaryScore); err != nil {
			return nil, errors.Wrap(err, "Store.List")
		}
		if err := json.Unmarshal([]byte(configJSON), &r.Config); err != nil {
			return nil, errors.Wrap(err, "Store.List: decoding config")
		}
		r.Status = TrialOK
		results = append(results, &r)
	}
	return results, errors.WithStack(rows.Err())
}

func (st *Store) artifactPath(id string) string {
	return filepath.Join(st.dir, id+".gob")
}
