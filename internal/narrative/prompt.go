package narrative

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/gigstats-cli/internal/ai"
	"github.com/KaramelBytes/gigstats-cli/internal/utils"
	"gopkg.in/yaml.v3"
)

// SystemPrompt frames the model as an analyst explaining computed results.
const SystemPrompt = "You are a data analyst assistant. Your task is to explain the provided data analysis results " +
	"in clear, natural language. Provide insights and interpretations, not just raw numbers. " +
	"Format your response for easy reading."

const truncatedMarker = "\n... (data context truncated)\n"

// DataContext renders data for the prompt. Strings pass through unchanged;
// anything else is encoded as YAML.
func DataContext(data any) (string, error) {
	if s, ok := data.(string); ok {
		return s, nil
	}
	b, err := yaml.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("encode data context: %w", err)
	}
	return strings.TrimRight(string(b), "\n"), nil
}

// BuildMessages assembles the chat for one question. The data context is cut
// to budget tokens when budget > 0.
func BuildMessages(question, dataContext string, budget int) []ai.Message {
	if budget > 0 && utils.CountTokens(dataContext) > budget {
		dataContext = utils.TruncateToTokenLimit(dataContext, budget) + truncatedMarker
	}
	return []ai.Message{
		{Role: "system", Content: SystemPrompt},
		{Role: "user", Content: fmt.Sprintf("Question: %s\n\nData Context: %s", question, dataContext)},
	}
}
