// Package contract replays recorded consumer interactions (Pact v2 files)
// against a running provider and reports every mismatch.
package contract

import (
	"encoding/json"
	"fmt"
	"os"
)

// Pact is a consumer contract: the interactions one consumer expects from one provider
type Pact struct {
	Consumer     Pacticipant    `json:"consumer"`
	Provider     Pacticipant    `json:"provider"`
	Interactions []Interaction  `json:"interactions"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

type Pacticipant struct {
	Name string `json:"name"`
}

// Interaction is one recorded request and the response the consumer relies on
type Interaction struct {
	Description    string          `json:"description"`
	ProviderState  string          `json:"providerState,omitempty"`
	ProviderStates []ProviderState `json:"providerStates,omitempty"`
	Request        Request         `json:"request"`
	Response       Response        `json:"response"`
}

type ProviderState struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params,omitempty"`
}

type Request struct {
	Method        string                  `json:"method"`
	Path          string                  `json:"path"`
	Query         string                  `json:"query,omitempty"`
	Headers       map[string]string       `json:"headers,omitempty"`
	Body          json.RawMessage         `json:"body,omitempty"`
	MatchingRules map[string]MatchingRule `json:"matchingRules,omitempty"`
}

type Response struct {
	Status        int                     `json:"status"`
	Headers       map[string]string       `json:"headers,omitempty"`
	Body          json.RawMessage         `json:"body,omitempty"`
	MatchingRules map[string]MatchingRule `json:"matchingRules,omitempty"`
}

// MatchingRule relaxes exact comparison at one JSON path.
// Supported: "type" and "regex".
type MatchingRule struct {
	Match string `json:"match"`
	Regex string `json:"regex,omitempty"`
	Min   int    `json:"min,omitempty"`
}

// States returns the provider state names of the interaction, in order
func (i Interaction) States() []string {
	if len(i.ProviderStates) > 0 {
		names := make([]string, 0, len(i.ProviderStates))
		for _, s := range i.ProviderStates {
			names = append(names, s.Name)
		}
		return names
	}
	if i.ProviderState != "" {
		return []string{i.ProviderState}
	}
	return nil
}

// Parse decodes a pact document
func Parse(data []byte) (*Pact, error) {
	var p Pact
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse pact: %w", err)
	}
	if len(p.Interactions) == 0 {
		return nil, fmt.Errorf("pact %s -> %s has no interactions", p.Consumer.Name, p.Provider.Name)
	}
	return &p, nil
}

// Load reads a pact file
func Load(path string) (*Pact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pact file: %w", err)
	}
	return Parse(data)
}
