package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/pflag"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type envelope struct {
	Status     string              `json:"status"`
	StatusCode int                 `json:"status_code"`
	Message    string              `json:"message"`
	Data       jsoniter.RawMessage `json:"data"`
}

type holdResult struct {
	HoldID       string
	StatusCode   int
	ResponseTime time.Duration
	Error        string
}

// LoadSuite races concurrent holds against one ticket type on a running
// server and checks the pool never oversells
type LoadSuite struct {
	BaseURL  string
	Token    string
	client   *http.Client
	Results  []holdResult
	resultMu sync.Mutex
}

func main() {
	baseURL := pflag.String("url", "http://localhost:8080/api/v1", "API base URL")
	token := pflag.String("token", "", "bearer token (admin role needed to provision)")
	total := pflag.Int("total", 50, "tickets to provision")
	workers := pflag.Int("workers", 200, "concurrent hold requests")
	duration := pflag.Int("hold-seconds", 30, "hold duration in seconds")
	pflag.Parse()

	suite := &LoadSuite{
		BaseURL: *baseURL,
		Token:   *token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := suite.Run(ctx, *total, *workers, *duration); err != nil {
		log.Printf("FAIL: %v", err)
		os.Exit(1)
	}
	fmt.Println("PASS: no oversell, every cancelled hold returned its ticket")
}

func (s *LoadSuite) Run(ctx context.Context, total, workers, holdSeconds int) error {
	eventID := "load-" + uuid.NewString()[:8]
	ticketTypeID := eventID + "-ga"

	if _, err := s.call(ctx, http.MethodPost, "/ticket-types", map[string]interface{}{
		"ticketTypeId": ticketTypeID,
		"eventId":      eventID,
		"total":        total,
	}, http.StatusCreated); err != nil {
		return fmt.Errorf("provision: %w", err)
	}
	fmt.Printf("Provisioned %s with %d tickets, firing %d holds\n", ticketTypeID, total, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.record(s.createHold(ctx, eventID, ticketTypeID, holdSeconds))
		}()
	}
	wg.Wait()

	granted := s.granted()
	inv, err := s.inventory(ctx, ticketTypeID)
	if err != nil {
		return err
	}
	s.report(total)

	if len(granted) > total {
		return fmt.Errorf("oversold: %d holds granted for %d tickets", len(granted), total)
	}
	if inv.Available != total-len(granted) {
		return fmt.Errorf("available=%d, want %d", inv.Available, total-len(granted))
	}

	for _, id := range granted {
		if _, err := s.call(ctx, http.MethodDelete, "/holds/"+id, nil, http.StatusNoContent); err != nil {
			return fmt.Errorf("cancel %s: %w", id, err)
		}
	}

	inv, err = s.inventory(ctx, ticketTypeID)
	if err != nil {
		return err
	}
	if inv.Available != total {
		return fmt.Errorf("after cancelling every hold available=%d, want %d", inv.Available, total)
	}
	return nil
}

func (s *LoadSuite) createHold(ctx context.Context, eventID, ticketTypeID string, holdSeconds int) holdResult {
	start := time.Now()
	env, err := s.call(ctx, http.MethodPost, "/holds", map[string]interface{}{
		"eventId":             eventID,
		"ticketTypeId":        ticketTypeID,
		"quantity":            1,
		"holdDurationSeconds": holdSeconds,
	}, 0)

	result := holdResult{ResponseTime: time.Since(start)}
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.StatusCode = env.StatusCode

	if env.StatusCode == http.StatusCreated {
		var hold struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(env.Data, &hold); err != nil {
			result.Error = err.Error()
			return result
		}
		result.HoldID = hold.ID
	}
	return result
}

type inventoryView struct {
	Total     int `json:"total"`
	Available int `json:"available"`
}

func (s *LoadSuite) inventory(ctx context.Context, ticketTypeID string) (inventoryView, error) {
	var inv inventoryView
	env, err := s.call(ctx, http.MethodGet, "/ticket-types/"+ticketTypeID+"/inventory", nil, http.StatusOK)
	if err != nil {
		return inv, fmt.Errorf("inventory: %w", err)
	}
	return inv, json.Unmarshal(env.Data, &inv)
}

// call sends a request and decodes the envelope. A non-zero want fails on
// any other status.
func (s *LoadSuite) call(ctx context.Context, method, path string, body interface{}, want int) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.BaseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	env := &envelope{StatusCode: resp.StatusCode}
	if resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(env); err != nil {
			return nil, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	if want != 0 && resp.StatusCode != want {
		return env, fmt.Errorf("%s %s returned %d: %s", method, path, resp.StatusCode, env.Message)
	}
	return env, nil
}

func (s *LoadSuite) record(r holdResult) {
	s.resultMu.Lock()
	defer s.resultMu.Unlock()
	s.Results = append(s.Results, r)
}

func (s *LoadSuite) granted() []string {
	s.resultMu.Lock()
	defer s.resultMu.Unlock()

	var ids []string
	for _, r := range s.Results {
		if r.HoldID != "" {
			ids = append(ids, r.HoldID)
		}
	}
	return ids
}

func (s *LoadSuite) report(total int) {
	s.resultMu.Lock()
	defer s.resultMu.Unlock()

	byStatus := make(map[int]int)
	latencies := make([]time.Duration, 0, len(s.Results))
	failures := 0
	for _, r := range s.Results {
		if r.Error != "" {
			failures++
			continue
		}
		byStatus[r.StatusCode]++
		latencies = append(latencies, r.ResponseTime)
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	fmt.Println("\nHold Load Report")
	fmt.Println("================")
	fmt.Printf("Requests: %d, tickets: %d, transport errors: %d\n", len(s.Results), total, failures)
	for code, n := range byStatus {
		fmt.Printf("  HTTP %d: %d\n", code, n)
	}
	if len(latencies) > 0 {
		fmt.Printf("Latency p50=%v p99=%v max=%v\n",
			latencies[len(latencies)/2],
			latencies[len(latencies)*99/100],
			latencies[len(latencies)-1],
		)
	}
}
