package database

import (
	"container/heap"
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/CrowderSoup/taskflow-pro/model"
)

// VectorStore keeps one normalized embedding per task in SQLite BLOBs and
// answers brute-force cosine queries per user. Task counts per user are small
// enough that a scan is exact and fast.
type VectorStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewVectorStore(db *sql.DB) *VectorStore {
	return &VectorStore{db: db, now: time.Now}
}

// Upsert stores the embedding for a task. The vector is normalized on insert
// so a dot product equals cosine similarity.
func (vs *VectorStore) Upsert(ctx context.Context, userID, taskID string, vector []float32) error {
	normalized := normalize(vector)
	_, err := vs.db.ExecContext(ctx, `
		INSERT INTO task_embeddings (task_id, user_id, embedding, dimensions, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(task_id) DO UPDATE SET
			embedding = excluded.embedding,
			dimensions = excluded.dimensions,
			updated_at = excluded.updated_at
	`, taskID, userID, float32ToBlob(normalized), len(normalized), formatTime(vs.now()))
	if err != nil {
		return fmt.Errorf("failed to upsert embedding: %w", err)
	}
	return nil
}

// Match returns up to limit of the user's tasks whose cosine similarity to
// query is above threshold, most similar first. Similarity is clamped to [0,1].
func (vs *VectorStore) Match(ctx context.Context, userID string, query []float32, threshold float64, limit int) ([]model.SearchResult, error) {
	if limit <= 0 {
		return []model.SearchResult{}, nil
	}
	q := normalize(query)

	rows, err := vs.db.QueryContext(ctx, `
		SELECT t.id, t.user_id, t.title, t.priority, t.status, t.start_date, t.notes, t.created_at, t.updated_at,
			e.embedding, e.dimensions
		FROM task_embeddings e
		JOIN tasks t ON t.id = e.task_id
		WHERE e.user_id = ? AND t.user_id = ?`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer rows.Close()

	h := &minHeap{}
	for rows.Next() {
		var blob []byte
		var dims int
		t, err := scanTask(rows, &blob, &dims)
		if err != nil {
			return nil, fmt.Errorf("failed to scan embedding: %w", err)
		}
		if dims != len(q) {
			continue
		}

		score := dotProduct(q, blobToFloat32(blob, dims))
		if score <= threshold {
			continue
		}
		r := model.SearchResult{Task: t, Similarity: clamp01(score)}
		if h.Len() < limit {
			heap.Push(h, r)
		} else if r.Similarity > (*h)[0].Similarity {
			(*h)[0] = r
			heap.Fix(h, 0)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read embeddings: %w", err)
	}

	results := make([]model.SearchResult, h.Len())
	for i := len(results) - 1; i >= 0; i-- {
		results[i] = heap.Pop(h).(model.SearchResult)
	}
	return results, nil
}

// TasksMissingEmbeddings returns tasks with no embedding or whose embedding
// predates the last edit to their title or notes, oldest first.
func (vs *VectorStore) TasksMissingEmbeddings(ctx context.Context, limit int) ([]model.Task, error) {
	rows, err := vs.db.QueryContext(ctx, `
		SELECT t.id, t.user_id, t.title, t.priority, t.status, t.start_date, t.notes, t.created_at, t.updated_at
		FROM tasks t
		LEFT JOIN task_embeddings e ON e.task_id = t.id
		WHERE e.task_id IS NULL OR e.updated_at < t.text_updated_at
		ORDER BY t.text_updated_at ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// minHeap implements heap.Interface for top-K selection (min at root).
type minHeap []model.SearchResult

func (h minHeap) Len() int           { return len(h) }
func (h minHeap) Less(i, j int) bool { return h[i].Similarity < h[j].Similarity }
func (h minHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x any)        { *h = append(*h, x.(model.SearchResult)) }
func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}

func normalize(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm)

	out := make([]float32, len(v))
	if norm == 0 {
		return out
	}
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func dotProduct(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func float32ToBlob(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func blobToFloat32(b []byte, dims int) []float32 {
	v := make([]float32, dims)
	for i := 0; i < dims && i*4+4 <= len(b); i++ {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
