package server

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mintesnot-teshome/llm-verify/internal/probe"
)

type PgStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PgStore)(nil)

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) CreateRun(meta RunMeta) error {
	configs, _ := json.Marshal(meta.ModelConfigs)
	_, err := s.pool.Exec(context.Background(),
		`INSERT INTO benchmark_runs (id,name,description,prompt_suite,status,model_configs,created_by,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		meta.RunID, meta.Name, nullStr(meta.Description), meta.PromptSuite, meta.Status,
		configs, nullStr(meta.CreatedBy), meta.CreatedAt)
	return err
}

func (s *PgStore) UpdateRun(runID string, mutate func(*RunMeta)) (RunMeta, error) {
	tx, err := s.pool.Begin(context.Background())
	if err != nil {
		return RunMeta{}, err
	}
	defer tx.Rollback(context.Background())

	row := tx.QueryRow(context.Background(),
		`SELECT id,name,description,prompt_suite,status,model_configs,created_by,created_at,completed_at,error
		 FROM benchmark_runs WHERE id=$1 FOR UPDATE`, runID)
	meta, err := scanRunMeta(row)
	if err != nil {
		return RunMeta{}, fmt.Errorf("run not found: %s", runID)
	}
	if mutate != nil {
		mutate(&meta)
	}
	_, err = tx.Exec(context.Background(),
		`UPDATE benchmark_runs SET status=$1,completed_at=$2,error=$3 WHERE id=$4`,
		meta.Status, nullStr(meta.CompletedAt), nullStr(meta.Error), runID)
	if err != nil {
		return RunMeta{}, err
	}
	return meta, tx.Commit(context.Background())
}

func (s *PgStore) GetRun(runID string) (RunMeta, bool) {
	row := s.pool.QueryRow(context.Background(),
		`SELECT id,name,description,prompt_suite,status,model_configs,created_by,created_at,completed_at,error
		 FROM benchmark_runs WHERE id=$1`, runID)
	meta, err := scanRunMeta(row)
	if err != nil {
		return RunMeta{}, false
	}
	return meta, true
}

func (s *PgStore) ListRuns(limit int) []RunMeta {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(context.Background(),
		`SELECT id,name,description,prompt_suite,status,model_configs,created_by,created_at,completed_at,error
		 FROM benchmark_runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return []RunMeta{}
	}
	defer rows.Close()
	out := []RunMeta{}
	for rows.Next() {
		meta, err := scanRunMeta(rows)
		if err != nil {
			continue
		}
		out = append(out, meta)
	}
	return out
}

func (s *PgStore) InsertRecords(records []probe.Record) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(
			`INSERT INTO probe_records
			 (id,run_id,model_name,provider,api_base_url,prompt_category,prompt_text,
			  response_text,error_message,latency_ms,prompt_tokens,completion_tokens,total_tokens,created_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
			r.ID, r.RunID, r.ModelName, r.Provider, nullStr(r.APIBaseURL), string(r.PromptCategory),
			r.PromptText, r.ResponseText, nullStr(r.ErrorMessage),
			r.LatencyMS, r.PromptTokens, r.CompletionTokens, r.TotalTokens, r.CreatedAt)
	}
	results := s.pool.SendBatch(context.Background(), batch)
	defer results.Close()
	for range records {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert probe record: %w", err)
		}
	}
	return nil
}

func (s *PgStore) ListRecords(runID string) []probe.Record {
	return s.queryRecords(
		`SELECT id,run_id,model_name,provider,api_base_url,prompt_category,prompt_text,
		        response_text,error_message,latency_ms,prompt_tokens,completion_tokens,total_tokens,created_at
		 FROM probe_records WHERE run_id=$1 ORDER BY created_at`, runID)
}

func (s *PgStore) ListRecordsByModel(runID, modelName string) []probe.Record {
	return s.queryRecords(
		`SELECT id,run_id,model_name,provider,api_base_url,prompt_category,prompt_text,
		        response_text,error_message,latency_ms,prompt_tokens,completion_tokens,total_tokens,created_at
		 FROM probe_records WHERE run_id=$1 AND model_name=$2 ORDER BY created_at`, runID, modelName)
}

func (s *PgStore) queryRecords(query string, args ...any) []probe.Record {
	rows, err := s.pool.Query(context.Background(), query, args...)
	if err != nil {
		return []probe.Record{}
	}
	defer rows.Close()
	out := []probe.Record{}
	for rows.Next() {
		var r probe.Record
		var baseURL, errMsg *string
		var category string
		var createdAt time.Time
		err := rows.Scan(&r.ID, &r.RunID, &r.ModelName, &r.Provider, &baseURL, &category,
			&r.PromptText, &r.ResponseText, &errMsg,
			&r.LatencyMS, &r.PromptTokens, &r.CompletionTokens, &r.TotalTokens, &createdAt)
		if err != nil {
			continue
		}
		r.APIBaseURL = deref(baseURL)
		r.ErrorMessage = deref(errMsg)
		r.PromptCategory = probe.Category(category)
		r.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		out = append(out, r)
	}
	return out
}

// --- helpers ---

type scannable interface {
	Scan(dest ...any) error
}

func scanRunMeta(row scannable) (RunMeta, error) {
	var m RunMeta
	var configsJSON []byte
	var description, createdBy, errStr *string
	var createdAt time.Time
	var completedAt *time.Time
	err := row.Scan(&m.RunID, &m.Name, &description, &m.PromptSuite, &m.Status,
		&configsJSON, &createdBy, &createdAt, &completedAt, &errStr)
	if err != nil {
		return RunMeta{}, err
	}
	m.Description = deref(description)
	m.CreatedBy = deref(createdBy)
	m.Error = deref(errStr)
	m.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	if completedAt != nil {
		m.CompletedAt = completedAt.UTC().Format(time.RFC3339)
	}
	if len(configsJSON) > 0 {
		_ = json.Unmarshal(configsJSON, &m.ModelConfigs)
	}
	return m, nil
}

func nullStr(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
