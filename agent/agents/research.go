package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	contractx "github.com/shopchat-ai/shopchat/agent/contract"
)

// ResearchAgent answers market questions from a curated dataset. It performs
// no backend calls.
type ResearchAgent struct {
	segments map[string]marketSegment
}

type marketSegment struct {
	Competitors     []string
	Trends          []string
	Recommendations []string
}

func NewResearchAgent() *ResearchAgent {
	return &ResearchAgent{
		segments: map[string]marketSegment{
			"fashion": {
				Competitors: []string{
					"ZARA - average prices 20% higher",
					"H&M - comparable prices, mid-range quality",
					"CASTRO - prices 15% higher, local audience focus",
				},
				Trends: []string{
					"sustainable clothing",
					"slow fashion",
					"natural fabrics",
				},
				Recommendations: []string{
					"keep pricing competitive",
					"emphasize fabric quality",
					"introduce an eco collection",
				},
			},
			"electronics": {
				Competitors: []string{
					"KSP - aggressive pricing, wide catalog",
					"Bug - comparable prices, strong warranty terms",
				},
				Trends: []string{
					"refurbished devices",
					"smart home bundles",
				},
				Recommendations: []string{
					"bundle accessories with flagship items",
					"highlight warranty and support",
				},
			},
		},
	}
}

func (a *ResearchAgent) ID() contractx.AgentID {
	return contractx.AgentResearch
}

func (a *ResearchAgent) Methods() []contractx.MethodSpec {
	return []contractx.MethodSpec{
		{
			Name:      "analyze_competitors",
			Cacheable: true,
			CacheTTL:  30 * time.Minute,
			Required:  []string{"market_segment"},
		},
		{
			Name:      "get_market_trends",
			Cacheable: true,
			CacheTTL:  30 * time.Minute,
			Required:  []string{"market_segment"},
			Optional:  []string{"period"},
		},
		{
			Name:      "get_recommendations",
			Cacheable: true,
			CacheTTL:  30 * time.Minute,
			Required:  []string{"market_segment"},
		},
	}
}

func (a *ResearchAgent) Call(ctx context.Context, method string, params map[string]any) (contractx.AgentResult, error) {
	segment, err := stringParam(params, "market_segment")
	if err != nil {
		return contractx.AgentResult{}, err
	}

	data, ok := a.segments[strings.ToLower(strings.TrimSpace(segment))]
	if !ok {
		return contractx.AgentResult{}, &contractx.AgentError{
			Kind:    "not_found",
			Message: fmt.Sprintf("no market data for segment %q", segment),
		}
	}

	switch method {
	case "analyze_competitors":
		return bulletResult("Competitor analysis:", data.Competitors), nil
	case "get_market_trends":
		return bulletResult("Current trends:", data.Trends), nil
	case "get_recommendations":
		return bulletResult("Business recommendations:", data.Recommendations), nil
	default:
		return contractx.AgentResult{}, fmt.Errorf("%w: research.%s", contractx.ErrUnknownMethod, method)
	}
}

func bulletResult(title string, items []string) contractx.AgentResult {
	lines := make([]string, 0, len(items)+1)
	lines = append(lines, title)
	for _, item := range items {
		lines = append(lines, "- "+item)
	}
	return contractx.AgentResult{
		Text:    strings.Join(lines, "\n"),
		Payload: items,
	}
}
