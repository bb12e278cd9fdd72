// Package match is the keyword match engine: deterministic, pure
// evaluation of a subscriber's keyword set against extracted article text.
package match

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/dtnitsch/news-clipper/models"
)

// ErrContentNotReady reports a classification attempt against an article
// whose body has not been extracted yet. The caller must fetch and parse
// first; hitting this in normal flow is a programming error, not a
// user-facing condition.
var ErrContentNotReady = errors.New("article content not extracted yet")

// Engine evaluates keyword sets against article text. It holds no state
// beyond the configured matching options, so results depend only on the
// inputs; that purity is what makes incremental skip-logic safe.
type Engine struct {
	opts models.MatchConfig
}

// NewEngine creates an Engine with the given matching options.
func NewEngine(opts models.MatchConfig) *Engine {
	return &Engine{opts: opts}
}

// Evaluate classifies one article for one subscriber. The article matches
// if any keyword hits; KeywordsHit records every hit, in the subscriber's
// keyword order, for report display and audit.
func (e *Engine) Evaluate(a *models.Article, body string, sub models.Subscriber) (models.MatchResult, error) {
	if !a.Parsed {
		return models.MatchResult{}, ErrContentNotReady
	}

	text := a.Title + "\n" + body
	var hits []string
	for _, keyword := range sub.Keywords {
		if keyword == "" {
			continue
		}
		if e.keywordInText(keyword, text) {
			hits = append(hits, keyword)
		}
	}

	return models.MatchResult{
		Matched:     len(hits) > 0,
		KeywordsHit: hits,
		ContentHash: a.ContentHash,
		EvaluatedAt: time.Now().UTC(),
	}, nil
}

// keywordInText applies the configured match mode. Whole-word mode uses
// \b boundaries, which are only meaningful when the keyword starts and
// ends with word characters; keywords that don't (CJK text, punctuation)
// fall back to substring matching.
func (e *Engine) keywordInText(keyword, text string) bool {
	if e.opts.WholeWord && hasWordEdges(keyword) {
		pattern := `\b` + regexp.QuoteMeta(keyword) + `\b`
		if !e.opts.CaseSensitive {
			pattern = `(?i)` + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return false
		}
		return re.MatchString(text)
	}

	if e.opts.CaseSensitive {
		return strings.Contains(text, keyword)
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(keyword))
}

func hasWordEdges(keyword string) bool {
	runes := []rune(keyword)
	if len(runes) == 0 {
		return false
	}
	return isASCIIWord(runes[0]) && isASCIIWord(runes[len(runes)-1])
}

func isASCIIWord(r rune) bool {
	return r == '_' || (r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)))
}
