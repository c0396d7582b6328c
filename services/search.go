package services

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/CrowderSoup/taskflow-pro/database"
	"github.com/CrowderSoup/taskflow-pro/model"
)

const (
	// SearchThreshold is the minimum cosine similarity of a match.
	SearchThreshold = 0.3
	// SearchLimit caps the number of matches returned.
	SearchLimit = 5
)

// SearchService embeds queries and tasks and matches them per user.
type SearchService struct {
	embedder Embedder
	vectors  *database.VectorStore
	tracer   trace.Tracer
}

func NewSearchService(embedder Embedder, vectors *database.VectorStore, tracer trace.Tracer) *SearchService {
	return &SearchService{embedder: embedder, vectors: vectors, tracer: tracer}
}

// Search returns the user's tasks most similar to query.
func (s *SearchService) Search(ctx context.Context, userID, query string) ([]model.SearchResult, error) {
	ctx, span := s.tracer.Start(ctx, "search.query", trace.WithAttributes(
		attribute.String("user.id", userID),
		attribute.Int("query.length", len(query)),
	))
	defer span.End()

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "embed failed")
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := s.vectors.Match(ctx, userID, vec, SearchThreshold, SearchLimit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "match failed")
		return nil, fmt.Errorf("match tasks: %w", err)
	}
	span.SetAttributes(attribute.Int("results", len(results)))
	return results, nil
}

// IndexTask stores the embedding of a task's current text.
func (s *SearchService) IndexTask(ctx context.Context, task model.Task) error {
	ctx, span := s.tracer.Start(ctx, "search.index", trace.WithAttributes(attribute.String("task.id", task.ID)))
	defer span.End()

	vec, err := s.embedder.Embed(ctx, taskText(task))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "embed failed")
		return fmt.Errorf("embed task %s: %w", task.ID, err)
	}
	return s.vectors.Upsert(ctx, task.UserID, task.ID, vec)
}

func taskText(t model.Task) string {
	if strings.TrimSpace(t.Notes) == "" {
		return t.Title
	}
	return t.Title + "\n" + t.Notes
}
