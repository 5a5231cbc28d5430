package rerank

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/pongchanan/Healthcare-AI/internal/core/domain"
	"github.com/pongchanan/Healthcare-AI/internal/core/ports"
)

const scoringPrompt = `Rate how relevant the passage is to the query on a scale from 0 to 10.
Reply with only the number.

Query: %s

Passage: %s`

// CrossEncoder scores (query, passage) pairs through the model server.
type CrossEncoder struct {
	completer ports.Completer
	model     string
}

func NewCrossEncoder(completer ports.Completer, model string) *CrossEncoder {
	return &CrossEncoder{completer: completer, model: model}
}

func (c *CrossEncoder) Score(ctx context.Context, query, passage string) (float64, error) {
	reply, err := c.completer.Complete(ctx, c.model, fmt.Sprintf(scoringPrompt, query, passage), ports.GenerateOptions{
		Temperature: 0,
		MaxTokens:   8,
	})
	if err != nil {
		return 0, err
	}

	score, ok := firstNumber(reply)
	if !ok {
		return 0, domain.WrapError(domain.ErrModelProtocol, "rerank score",
			fmt.Errorf("no numeric score in reply %q", reply))
	}
	return score, nil
}

func firstNumber(s string) (float64, bool) {
	start := -1
	for i, r := range s {
		if unicode.IsDigit(r) {
			start = i
			break
		}
	}
	if start < 0 {
		return 0, false
	}

	end := start
	seenDot := false
	for end < len(s) {
		ch := s[end]
		if ch >= '0' && ch <= '9' {
			end++
			continue
		}
		if ch == '.' && !seenDot {
			seenDot = true
			end++
			continue
		}
		break
	}

	value, err := strconv.ParseFloat(strings.TrimSuffix(s[start:end], "."), 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
