// Package entity corrects misspelled person names and movie titles in a
// question using the graph's full-text indexes.
package entity

import (
	"context"
	"fmt"
	"strings"

	"github.com/cinegraph/backend/pkg/ai"
	"github.com/cinegraph/backend/pkg/common"
	"github.com/cinegraph/backend/pkg/logger"
)

const (
	DefaultThreshold   = 0.5
	DefaultPersonIndex = "personNameIndex"
	DefaultMovieIndex  = "movieTitleIndex"
)

// Searcher is the part of the graph store the resolver needs.
type Searcher interface {
	FullTextSearch(ctx context.Context, index, property, text string) (*common.Match, error)
}

// Mention is an entity name as extracted from the question.
type Mention struct {
	Text string
	Kind common.EntityKind
}

// Correction is one replacement applied to the question.
type Correction struct {
	Mention string
	Match   string
	Score   float64
}

// Resolution is the outcome of resolving one question. Persons and Movies
// hold the canonical text of each mention, or the mention itself when it had
// no accepted match.
type Resolution struct {
	Question    string
	Corrected   string
	Persons     []string
	Movies      []string
	Mentions    []Mention
	Corrections []Correction
}

// Changed reports whether any mention was replaced.
func (r Resolution) Changed() bool {
	return r.Corrected != r.Question
}

// Resolver extracts mentions with a language model and looks each one up.
type Resolver struct {
	gen       ai.Generator
	search    Searcher
	model     string
	threshold float64
	indexes   map[common.EntityKind]index
}

type index struct {
	name     string
	property string
}

// NewResolverParams configures a Resolver. Zero values select the defaults;
// a nil Threshold means DefaultThreshold, so zero accepts any positive score.
type NewResolverParams struct {
	Generator   ai.Generator
	Searcher    Searcher
	Model       string
	Threshold   *float64
	PersonIndex string
	MovieIndex  string
}

func NewResolver(params NewResolverParams) *Resolver {
	threshold := DefaultThreshold
	if params.Threshold != nil {
		threshold = *params.Threshold
	}
	personIndex := params.PersonIndex
	if personIndex == "" {
		personIndex = DefaultPersonIndex
	}
	movieIndex := params.MovieIndex
	if movieIndex == "" {
		movieIndex = DefaultMovieIndex
	}

	return &Resolver{
		gen:       params.Generator,
		search:    params.Searcher,
		model:     params.Model,
		threshold: threshold,
		indexes: map[common.EntityKind]index{
			common.KindPerson: {name: personIndex, property: common.NameKey},
			common.KindMovie:  {name: movieIndex, property: common.TitleKey},
		},
	}
}

type extracted struct {
	Persons []string `json:"persons"`
	Movies  []string `json:"movies"`
}

// Resolve extracts the mentions in question and replaces each one whose best
// match scores above the threshold and differs from it ignoring case. Persons
// are applied before movies, each in extraction order. A model failure or a
// store failure is returned as an error; an unparseable model answer means
// the question has no mentions. On a store failure the returned Resolution
// keeps the corrections applied before it.
func (r *Resolver) Resolve(
	ctx context.Context,
	question string,
	history []ai.ChatMessage,
) (Resolution, error) {
	res := Resolution{Question: question, Corrected: question}

	mentions, err := r.Extract(ctx, question, history)
	if err != nil {
		return Resolution{}, err
	}
	res.Mentions = mentions

	for _, m := range mentions {
		canonical, err := r.resolveMention(ctx, m, &res)
		if err != nil {
			return res, err
		}
		switch m.Kind {
		case common.KindPerson:
			res.Persons = append(res.Persons, canonical)
		case common.KindMovie:
			res.Movies = append(res.Movies, canonical)
		}
	}

	if res.Changed() {
		logger.Info("[Entity] Corrected question", "question", res.Question, "corrected", res.Corrected)
	}
	return res, nil
}

func (r *Resolver) resolveMention(ctx context.Context, m Mention, res *Resolution) (string, error) {
	idx := r.indexes[m.Kind]
	match, err := r.search.FullTextSearch(ctx, idx.name, idx.property, m.Text)
	if err != nil {
		return "", fmt.Errorf("failed to look up %s %q: %w", strings.ToLower(string(m.Kind)), m.Text, err)
	}
	if match == nil || match.Score <= r.threshold {
		return m.Text, nil
	}

	if !strings.EqualFold(match.Text, m.Text) {
		res.Corrected = strings.ReplaceAll(res.Corrected, m.Text, match.Text)
		res.Corrections = append(res.Corrections, Correction{Mention: m.Text, Match: match.Text, Score: match.Score})
		logger.Info("[Entity] Mapped mention", "mention", m.Text, "match", match.Text, "score", match.Score)
	}
	return match.Text, nil
}

// Extract asks the model for the person names and movie titles in question.
// Persons come first. Output that cannot be parsed yields no mentions.
func (r *Resolver) Extract(
	ctx context.Context,
	question string,
	history []ai.ChatMessage,
) ([]Mention, error) {
	prompt := fmt.Sprintf(ai.EntityExtractionPrompt, ai.FormatConversation(history), question)

	opts := []ai.GenerateOption{ai.WithTemperature(0)}
	if r.model != "" {
		opts = append(opts, ai.WithModel(r.model))
	}

	raw, err := r.gen.GenerateCompletion(ctx, prompt, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to extract entities: %w", err)
	}

	var out extracted
	if err := ai.UnmarshalFlexible(ai.StripCodeFence(raw), &out); err != nil {
		logger.Debug("[Entity] Unparseable extraction output", "err", err)
		return nil, nil
	}

	mentions := make([]Mention, 0, len(out.Persons)+len(out.Movies))
	for _, p := range out.Persons {
		if p = strings.TrimSpace(p); p != "" {
			mentions = append(mentions, Mention{Text: p, Kind: common.KindPerson})
		}
	}
	for _, m := range out.Movies {
		if m = strings.TrimSpace(m); m != "" {
			mentions = append(mentions, Mention{Text: m, Kind: common.KindMovie})
		}
	}
	return mentions, nil
}
