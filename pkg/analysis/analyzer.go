// Package analysis scores sentiment and narrative framing for the text
// surrounding an entity mention. Scoring is lexicon-based and fully
// deterministic - no model calls.
package analysis

import (
	"sort"
	"strings"
)

// Sentiment categories.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// FramingNeutral is returned when no framing keywords match.
const FramingNeutral = "neutral"

// Sentiment category thresholds: score >= 0.2 is positive, <= -0.2 is
// negative, anything strictly between is neutral.
const sentimentThreshold = 0.2

// SentimentResult holds the normalized sentiment of a passage.
// Score is in [-1, 1]: (positive hits - negative hits) / total hits.
type SentimentResult struct {
	Score    float64 `json:"score"`
	Category string  `json:"category"`
}

// FramingResult labels the narrative role assigned to an entity in a
// passage. Category is the keyword category with the most matches;
// Counts carries the per-category match counts and Scores the counts
// normalized by the total framing hits, so scores sum to 1 whenever any
// framing keyword matched and are all 0 otherwise.
type FramingResult struct {
	Category string             `json:"category"`
	Scores   map[string]float64 `json:"scores"`
	Counts   map[string]int     `json:"counts"`
}

// ContextAnalysis is the full scoring result for one passage.
type ContextAnalysis struct {
	Sentiment SentimentResult `json:"sentiment"`
	Framing   FramingResult   `json:"framing"`
	Length    int             `json:"length"`
	WordCount int             `json:"word_count"`
}

// ContextAnalyzer scores a mention's surrounding text.
type ContextAnalyzer interface {
	Analyze(text string) ContextAnalysis
}

type lexiconAnalyzer struct{}

// NewContextAnalyzer creates the lexicon-based ContextAnalyzer.
func NewContextAnalyzer() ContextAnalyzer {
	return &lexiconAnalyzer{}
}

var _ ContextAnalyzer = (*lexiconAnalyzer)(nil)

var positiveLexicon = makeSet(
	"acclaimed", "achievement", "admired", "advance", "agreement", "award",
	"beneficial", "boost", "breakthrough", "celebrated", "champion",
	"excellent", "gain", "growth", "honor", "hope", "improve", "improved",
	"innovative", "landmark", "praise", "praised", "progress", "prosper",
	"recovery", "reform", "success", "successful", "support", "triumph",
	"victory", "welcome", "win", "wins",
)

var negativeLexicon = makeSet(
	"accused", "attack", "blame", "blamed", "collapse", "condemn",
	"condemned", "corrupt", "corruption", "crisis", "criticism",
	"criticized", "damage", "danger", "decline", "disaster", "failure",
	"fear", "fraud", "guilty", "harm", "injured", "killed", "loss",
	"losses", "plunge", "probe", "scandal", "slump", "threat", "turmoil",
	"victim", "violence", "warning", "worst",
)

// framingLexicons maps each framing category to its keyword set.
var framingLexicons = map[string]map[string]struct{}{
	"leader": makeSet(
		"announced", "appointed", "chief", "directed", "elected", "head",
		"launched", "leader", "leading", "led", "minister", "oversees",
		"president", "spearheaded", "unveiled",
	),
	"victim": makeSet(
		"affected", "attacked", "displaced", "harmed", "injured", "lost",
		"suffered", "targeted", "victim", "victims", "wounded",
	),
	"villain": makeSet(
		"accused", "arrested", "charged", "convicted", "denied", "fraud",
		"guilty", "indicted", "sanctioned", "suspected", "violated",
	),
	"expert": makeSet(
		"according", "analyst", "analysts", "economist", "estimated",
		"expert", "experts", "professor", "researcher", "researchers",
		"scientist", "study", "warned",
	),
}

func makeSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// Analyze scores one sentence or paragraph. Empty text yields a neutral
// result with score 0.0 and word count 0; it is not an error.
func (a *lexiconAnalyzer) Analyze(text string) ContextAnalysis {
	words := tokenize(text)

	result := ContextAnalysis{
		Sentiment: SentimentResult{Category: SentimentNeutral},
		Framing: FramingResult{
			Category: FramingNeutral,
			Scores:   make(map[string]float64, len(framingLexicons)),
			Counts:   make(map[string]int, len(framingLexicons)),
		},
		Length:    len(text),
		WordCount: len(words),
	}
	for category := range framingLexicons {
		result.Framing.Scores[category] = 0
		result.Framing.Counts[category] = 0
	}

	if len(words) == 0 {
		return result
	}

	var positive, negative int
	for _, word := range words {
		if _, ok := positiveLexicon[word]; ok {
			positive++
		}
		if _, ok := negativeLexicon[word]; ok {
			negative++
		}
		for category, lexicon := range framingLexicons {
			if _, ok := lexicon[word]; ok {
				result.Framing.Counts[category]++
			}
		}
	}

	if positive+negative > 0 {
		result.Sentiment.Score = float64(positive-negative) / float64(positive+negative)
	}
	result.Sentiment.Category = categorize(result.Sentiment.Score)

	totalFraming := 0
	for _, count := range result.Framing.Counts {
		totalFraming += count
	}
	if totalFraming > 0 {
		for category, count := range result.Framing.Counts {
			result.Framing.Scores[category] = float64(count) / float64(totalFraming)
		}
	}
	result.Framing.Category = dominantCategory(result.Framing.Counts)

	return result
}

func categorize(score float64) string {
	switch {
	case score >= sentimentThreshold:
		return SentimentPositive
	case score <= -sentimentThreshold:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// dominantCategory picks the category with the highest count. All-zero
// counts yield neutral; count ties go to the alphabetically first
// category so results are stable across runs.
func dominantCategory(counts map[string]int) string {
	categories := make([]string, 0, len(counts))
	for category := range counts {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	best := FramingNeutral
	bestCount := 0
	for _, category := range categories {
		if counts[category] > bestCount {
			best = category
			bestCount = counts[category]
		}
	}
	return best
}

// tokenize lowercases and splits text into words, trimming punctuation.
func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		word := strings.Trim(f, ".,;:!?\"'()[]{}<>-—")
		if word != "" {
			words = append(words, word)
		}
	}
	return words
}
