/*
Copyright © 2026 Salma <salma247@pm.me>
*/

package main

import (
	"context"
	"crypto/rand"
	_ "embed"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"time"
)

// QuestionSource produces one prompt per round. Fetch may block on
// network I/O; callers are expected to pass a bounded context and to keep
// room state untouched until it returns.
type QuestionSource interface {
	Fetch(ctx context.Context) (*Prompt, error)
}

// randIndex returns a uniform-ish index in [0, n) using crypto/rand.
func randIndex(n int) int {
	var b [2]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0
	}
	return (int(b[0])<<8 | int(b[1])) % n
}

func shuffle(items []string) {
	// Fisher-Yates shuffle using crypto/rand
	for i := len(items) - 1; i > 0; i-- {
		var b [1]byte
		if _, err := rand.Read(b[:]); err != nil {
			continue
		}
		j := int(b[0]) % (i + 1)
		items[i], items[j] = items[j], items[i]
	}
}

// triviaAPI fetches questions from an Open Trivia DB-compatible endpoint.
type triviaAPI struct {
	url    string
	client *http.Client
}

func newTriviaAPI(url string, timeout time.Duration) *triviaAPI {
	return &triviaAPI{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type triviaAPIResponse struct {
	ResponseCode int `json:"response_code"`
	Results      []struct {
		Question         string   `json:"question"`
		CorrectAnswer    string   `json:"correct_answer"`
		IncorrectAnswers []string `json:"incorrect_answers"`
	} `json:"results"`
}

func (t *triviaAPI) Fetch(ctx context.Context) (*Prompt, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuestionUnavailable, err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuestionUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrQuestionUnavailable, resp.StatusCode)
	}

	var decoded triviaAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuestionUnavailable, err)
	}

	if decoded.ResponseCode != 0 || len(decoded.Results) == 0 {
		return nil, fmt.Errorf("%w: empty result set (code %d)", ErrQuestionUnavailable, decoded.ResponseCode)
	}

	result := decoded.Results[0]

	choices := make([]string, 0, len(result.IncorrectAnswers)+1)
	choices = append(choices, html.UnescapeString(result.CorrectAnswer))
	for _, wrong := range result.IncorrectAnswers {
		choices = append(choices, html.UnescapeString(wrong))
	}
	shuffle(choices)

	return &Prompt{
		Question: html.UnescapeString(result.Question),
		Choices:  choices,
		Answer:   html.UnescapeString(result.CorrectAnswer),
	}, nil
}

//go:embed trivia/questions.json
var deckJSON []byte

type deckEntry struct {
	Question string   `json:"question"`
	Choices  []string `json:"choices"`
	Answer   string   `json:"answer"`
}

// deckSource serves prompts from the embedded offline deck.
type deckSource struct {
	entries []deckEntry
}

func newDeckSource() (*deckSource, error) {
	var entries []deckEntry
	if err := json.Unmarshal(deckJSON, &entries); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: embedded deck is empty", ErrQuestionUnavailable)
	}
	return &deckSource{entries: entries}, nil
}

func (d *deckSource) Fetch(_ context.Context) (*Prompt, error) {
	entry := d.entries[randIndex(len(d.entries))]

	choices := make([]string, len(entry.Choices))
	copy(choices, entry.Choices)
	shuffle(choices)

	return &Prompt{
		Question: entry.Question,
		Choices:  choices,
		Answer:   entry.Answer,
	}, nil
}

// newQuestionSource picks the configured source: the HTTP API by default,
// the embedded deck when running offline.
func newQuestionSource(cfg *Config) (QuestionSource, error) {
	if cfg.offline {
		return newDeckSource()
	}
	return newTriviaAPI(cfg.questionAPI, cfg.questionTimeout), nil
}
