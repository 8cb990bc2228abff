package workflow

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PGStore persists definitions and execution records in Postgres as JSONB
// payloads keyed by id.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(dsn string) (*PGStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("dsn is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	s := &PGStore{db: db}
	if err := s.migrate(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PGStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
create table if not exists automaton_workflows (
  id text primary key,
  payload jsonb not null,
  created_at timestamptz not null
);
create table if not exists automaton_executions (
  id text primary key,
  workflow_id text not null,
  status text not null,
  payload jsonb not null,
  started_at timestamptz not null,
  finished_at timestamptz
);
create index if not exists automaton_executions_workflow_idx on automaton_executions (workflow_id, started_at);
`)
	return err
}

func (s *PGStore) SaveDefinition(def Definition) error {
	b, err := json.Marshal(def)
	if err != nil {
		return err
	}
	created := def.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err = s.db.Exec(`insert into automaton_workflows (id, payload, created_at) values ($1, $2, $3)
on conflict (id) do update set payload = excluded.payload`, def.ID, b, created)
	return err
}

func (s *PGStore) GetDefinition(id string) (Definition, error) {
	var raw []byte
	err := s.db.QueryRow(`select payload from automaton_workflows where id=$1`, id).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return Definition{}, ErrNotFound
		}
		return Definition{}, err
	}
	var def Definition
	if err := json.Unmarshal(raw, &def); err != nil {
		return Definition{}, err
	}
	return def, nil
}

func (s *PGStore) ListDefinitions() ([]Definition, error) {
	rows, err := s.db.Query(`select payload from automaton_workflows order by created_at desc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Definition
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			continue
		}
		var def Definition
		if err := json.Unmarshal(raw, &def); err != nil {
			continue
		}
		out = append(out, def)
	}
	return out, rows.Err()
}

func (s *PGStore) SaveExecution(exec *Execution) error {
	b, err := json.Marshal(exec)
	if err != nil {
		return err
	}
	var finished any
	if exec.FinishedAt != nil {
		finished = *exec.FinishedAt
	}
	_, err = s.db.Exec(`insert into automaton_executions (id, workflow_id, status, payload, started_at, finished_at)
values ($1,$2,$3,$4,$5,$6)
on conflict (id) do update set status = excluded.status, payload = excluded.payload, finished_at = excluded.finished_at`,
		exec.ExecutionID, exec.WorkflowID, string(exec.OverallStatus), b, exec.StartedAt, finished)
	return err
}

func (s *PGStore) GetExecution(id string) (*Execution, error) {
	var raw []byte
	err := s.db.QueryRow(`select payload from automaton_executions where id=$1`, id).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var exec Execution
	if err := json.Unmarshal(raw, &exec); err != nil {
		return nil, err
	}
	return &exec, nil
}

func (s *PGStore) ListExecutions(workflowID string) ([]*Execution, error) {
	query := `select payload from automaton_executions order by started_at asc`
	args := []any{}
	if workflowID != "" {
		query = `select payload from automaton_executions where workflow_id=$1 order by started_at asc`
		args = append(args, workflowID)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Execution
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			continue
		}
		var exec Execution
		if err := json.Unmarshal(raw, &exec); err != nil {
			continue
		}
		out = append(out, &exec)
	}
	return out, rows.Err()
}

func (s *PGStore) Close() error { return s.db.Close() }
