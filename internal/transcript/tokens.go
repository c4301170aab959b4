package transcript

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/user/simterm/internal/types"
)

// TokenCounter estimates how many model tokens a transcript would cost.
type TokenCounter struct {
	tokenizer *tiktoken.Tiktoken
}

// NewTokenCounter selects the tokenizer for model, falling back to
// cl100k_base for unknown models. The encoding is fetched and cached by
// tiktoken on first use.
func NewTokenCounter(model string) (*TokenCounter, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("get tokenizer: %w", err)
		}
	}
	return &TokenCounter{tokenizer: enc}, nil
}

// Count returns the token count for a string.
func (c *TokenCounter) Count(text string) int {
	return len(c.tokenizer.Encode(text, nil, nil))
}

// Stats summarizes token usage per line type.
type Stats struct {
	Total  int
	ByType map[types.LineType]int
}

// Measure counts tokens over every line of the session log.
func (c *TokenCounter) Measure(sess types.Session) Stats {
	st := Stats{ByType: make(map[types.LineType]int)}
	for _, line := range sess.Output {
		n := c.Count(line.Content)
		st.Total += n
		st.ByType[line.Type] += n
	}
	return st
}
