package client

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/CrowderSoup/taskflow-pro/model"
)

const searchFailed = "search failed"

type searchRequest struct {
	Query  string `json:"query"`
	UserID string `json:"userId"`
}

type searchResponse struct {
	Results []model.SearchResult `json:"results"`
	Error   string               `json:"error,omitempty"`
}

// Searcher runs semantic searches for one identity and keeps the results of
// the latest completed call.
type Searcher struct {
	client *Client
	userID string

	mu      sync.Mutex
	results []model.SearchResult
	errMsg  string
}

func NewSearcher(c *Client, userID string) *Searcher {
	return &Searcher{client: c, userID: userID}
}

// Search sends the trimmed query to the smart-search function. A blank query
// returns no results without touching the network. Results come back ordered
// by descending similarity and are not re-sorted here.
func (s *Searcher) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" || s.userID == "" {
		s.set([]model.SearchResult{}, "")
		return []model.SearchResult{}, nil
	}

	var resp searchResponse
	err := s.client.do(ctx, functionTimeout, http.MethodPost, "/functions/v1/smart-search",
		searchRequest{Query: query, UserID: s.userID}, &resp)
	if err == nil && resp.Error != "" {
		err = &APIError{StatusCode: http.StatusOK, Message: resp.Error}
	}
	if err != nil {
		err = functionError(err, searchFailed)
		s.set(nil, err.Error())
		return nil, err
	}

	results := resp.Results
	if results == nil {
		results = []model.SearchResult{}
	}
	s.set(results, "")
	return slices.Clone(results), nil
}

// Clear drops results and error without a network call.
func (s *Searcher) Clear() {
	s.set(nil, "")
}

func (s *Searcher) Results() []model.SearchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.results)
}

// Err is the message of the last failed search, or "".
func (s *Searcher) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

func (s *Searcher) set(results []model.SearchResult, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = results
	s.errMsg = errMsg
}
