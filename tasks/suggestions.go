package tasks

import (
	"context"
	"slices"
	"sync"

	"github.com/CrowderSoup/taskflow-pro/model"
)

// Suggestions holds AI-generated subtask titles until the user saves them.
// Nothing here is persisted.
type Suggestions struct {
	mu    sync.Mutex
	items []string
}

func NewSuggestions(items []string) *Suggestions {
	return &Suggestions{items: slices.Clone(items)}
}

func (s *Suggestions) Items() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

func (s *Suggestions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Accept saves the suggestion as a subtask and drops it from the list. The
// list is left untouched if saving fails.
func (s *Suggestions) Accept(ctx context.Context, store *SubtaskStore, suggestion string) (model.Subtask, error) {
	created, err := store.Add(ctx, model.SubtaskDraft{Title: suggestion})
	if err != nil {
		return model.Subtask{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = slices.DeleteFunc(s.items, func(item string) bool { return item == suggestion })
	return created, nil
}
