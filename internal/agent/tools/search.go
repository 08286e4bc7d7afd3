package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
)

// ===================================
// Knowledge-base search tool
// ===================================

type SearchInput struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results,omitempty"`
}

type SearchResult struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

type SearchOutput struct {
	Results []SearchResult `json:"results"`
	Total   int            `json:"total"`
}

func createSearchTool() tool.InvokableTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolSearch,
			Desc: "Search the internal knowledge base for articles matching the query. Returns article id, title, and a snippet. Use this tool whenever the user asks about policies, product facts, or anything you are unsure about.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {
					Type:     "string",
					Desc:     "Search keywords. Can include topic names, product names, or question fragments.",
					Required: true,
				},
				"max_results": {
					Type: "number",
					Desc: "Maximum number of articles to return (default: 5, max: 10)",
				},
			}),
		},
		func(ctx context.Context, in *SearchInput) (*SearchOutput, error) {
			if strings.TrimSpace(in.Query) == "" {
				return nil, fmt.Errorf("query is required")
			}

			max := in.MaxResults
			if max <= 0 {
				max = 5
			}
			if max > 10 {
				max = 10
			}

			queryLower := strings.ToLower(in.Query)
			var matched []SearchResult
			for _, a := range knowledgeBase {
				if strings.Contains(strings.ToLower(a.Title), queryLower) ||
					strings.Contains(strings.ToLower(a.Snippet), queryLower) {
					matched = append(matched, a)
				}
			}
			if len(matched) > max {
				matched = matched[:max]
			}

			return &SearchOutput{Results: matched, Total: len(matched)}, nil
		},
	)
}

var knowledgeBase = []SearchResult{
	{
		ID:      "kb-001",
		Title:   "Return policy",
		Snippet: "Items can be returned within 30 days of delivery in original packaging. Refunds are issued to the original payment method within 5-7 business days.",
	},
	{
		ID:      "kb-002",
		Title:   "Shipping options",
		Snippet: "Standard shipping takes 3-5 business days. Express shipping delivers next business day for orders placed before 2pm.",
	},
	{
		ID:      "kb-003",
		Title:   "Warranty coverage",
		Snippet: "All electronics carry a 12-month manufacturer warranty covering defects in materials and workmanship. Accidental damage is not covered.",
	},
	{
		ID:      "kb-004",
		Title:   "Payment methods",
		Snippet: "We accept major credit cards, bank transfer, and installment plans on purchases above 10,000 THB.",
	},
	{
		ID:      "kb-005",
		Title:   "Store opening hours",
		Snippet: "Branches are open 10:00-21:00 every day including public holidays. The online store is available around the clock.",
	},
}
