package usecase

import (
	"context"
	"sort"
	"strings"

	"contact-indexer/domain"
	"contact-indexer/port"
)

// MinSuggestionPrefix is the shortest prefix worth suggesting for; below it
// the grouped scans degrade to near full-table output.
const MinSuggestionPrefix = 2

// DefaultMaxSuggestions applies when the caller does not cap the result.
const DefaultMaxSuggestions = 10

// MaxSuggestions caps the result size of any suggestion request.
const MaxSuggestions = 50

// suggestionWeights rank categories against each other when suggestions from
// all of them merge into one list. Person names outrank companies, which
// outrank job titles.
var suggestionWeights = map[domain.SuggestionCategory]float64{
	domain.SuggestName:    3.0,
	domain.SuggestCompany: 2.0,
	domain.SuggestTitle:   1.5,
}

// SuggestValuesUsecase builds ranked autocomplete candidates from grouped
// starts-with counts the backend provides.
type SuggestValuesUsecase struct {
	backend port.SearchBackend
}

func NewSuggestValuesUsecase(backend port.SearchBackend) *SuggestValuesUsecase {
	return &SuggestValuesUsecase{backend: backend}
}

// Execute returns up to max suggestions whose value starts with prefix.
// An empty category queries all categories; each category is capped at max
// before the merged list is re-ranked and truncated. Prefixes shorter than
// MinSuggestionPrefix yield an empty result rather than an error.
func (u *SuggestValuesUsecase) Execute(ctx context.Context, docType domain.DocumentType, prefix string, category domain.SuggestionCategory, max int, userID string) ([]domain.Suggestion, error) {
	prefix = strings.TrimSpace(prefix)
	if len([]rune(prefix)) < MinSuggestionPrefix {
		return []domain.Suggestion{}, nil
	}

	if max <= 0 {
		max = DefaultMaxSuggestions
	}
	if max > MaxSuggestions {
		max = MaxSuggestions
	}

	categories := []domain.SuggestionCategory{domain.SuggestName, domain.SuggestCompany, domain.SuggestTitle}
	if category != "" {
		if _, ok := suggestionWeights[category]; !ok {
			return nil, domain.NewSearchQueryError(domain.CodeInvalidType, "unknown suggestion type: "+string(category))
		}
		categories = []domain.SuggestionCategory{category}
	}

	suggestions := make([]domain.Suggestion, 0, max*len(categories))
	for _, cat := range categories {
		values, err := u.backend.SuggestValues(ctx, docType, string(cat), prefix, userID, max)
		if err != nil {
			return nil, err
		}
		weight := suggestionWeights[cat]
		for _, v := range values {
			suggestions = append(suggestions, domain.Suggestion{
				Value:    v.Value,
				Category: cat,
				Count:    v.Count,
				Score:    weight * float64(v.Count),
			})
		}
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		if suggestions[i].Score != suggestions[j].Score {
			return suggestions[i].Score > suggestions[j].Score
		}
		return suggestions[i].Value < suggestions[j].Value
	})

	if len(suggestions) > max {
		suggestions = suggestions[:max]
	}
	return suggestions, nil
}
