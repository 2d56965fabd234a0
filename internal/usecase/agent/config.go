package agent

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"finsight/pkg/config"
)

// Instructions are the system prompts given to each agent's language
// model. They can be overridden per deployment via a YAML file.
type Instructions struct {
	Finance   string `yaml:"finance"`
	WebSearch string `yaml:"web_search"`
	Team      string `yaml:"team"`
}

// DefaultInstructions returns the built-in agent prompts.
func DefaultInstructions() Instructions {
	return Instructions{
		Finance: "You are a financial data analyst. Answer the user's question " +
			"using only the market data provided below. Quote concrete figures, " +
			"mention the analyst consensus when relevant, and note explicitly when " +
			"data is marked as stale or unavailable. Do not give personalized " +
			"investment advice.",
		WebSearch: "You are a research assistant. Answer the user's question " +
			"using the web search results provided below. Cite the source titles " +
			"you rely on and say so plainly when the results do not answer the " +
			"question.",
		Team: "You are a financial research supervisor. Combine the market data " +
			"analysis and the web research below into one coherent answer to the " +
			"user's question. Prefer hard market data over web commentary when " +
			"they disagree, and preserve any caveats about stale or missing data.",
	}
}

// LoadInstructions returns the default prompts, overridden by the YAML
// file named in AGENTS_CONFIG_FILE when set. Empty fields in the file keep
// their defaults; a missing or malformed file is an error so a bad deploy
// fails loudly instead of silently running with wrong prompts.
func LoadInstructions() (Instructions, error) {
	instructions := DefaultInstructions()

	path := config.GetEnvString("AGENTS_CONFIG_FILE", "")
	if path == "" {
		return instructions, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Instructions{}, fmt.Errorf("read agents config %s: %w", path, err)
	}

	var override Instructions
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Instructions{}, fmt.Errorf("parse agents config %s: %w", path, err)
	}

	if override.Finance != "" {
		instructions.Finance = override.Finance
	}
	if override.WebSearch != "" {
		instructions.WebSearch = override.WebSearch
	}
	if override.Team != "" {
		instructions.Team = override.Team
	}

	slog.Info("Loaded agent instruction overrides", "path", path)
	return instructions, nil
}
