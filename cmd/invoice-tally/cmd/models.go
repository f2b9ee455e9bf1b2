package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/invoice-tally/internal/config"
	"github.com/rezonia/invoice-tally/internal/llm"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List available LLM models from API",
	Long: `Fetch and list available LLM models from the configured API endpoint.

This command queries the /models endpoint of your OpenAI-compatible
provider. Requires LLM_API_KEY; LLM_BASE_URL defaults to OpenRouter.

To use a specific model, set the environment variables:
  LLM_MODEL=<model-id>         # For text extraction
  LLM_VISION_MODEL=<model-id>  # For vision/image extraction

Or use CLI flags:
  --llm-model <model-id>
  --llm-vision-model <model-id>`,
	RunE: runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if cfg.LLMProvider == config.ProviderGemini {
		fmt.Fprintln(out, "Model listing is only available for OpenAI-compatible providers.")
		fmt.Fprintf(out, "Gemini model in use: %s\n", valueOr(cfg.GeminiModel, llm.DefaultGeminiModel))
		return nil
	}

	baseURL := valueOr(cfg.LLMBaseURL, llm.DefaultBaseURL)

	fmt.Fprintln(out, "Current Configuration:")
	fmt.Fprintln(out, "----------------------")
	fmt.Fprintf(out, "  LLM_BASE_URL:     %s\n", baseURL)
	fmt.Fprintf(out, "  LLM_MODEL:        %s\n", valueOr(cfg.LLMModel, "(not set)"))
	fmt.Fprintf(out, "  LLM_VISION_MODEL: %s\n", valueOr(cfg.LLMVisionModel, "(not set)"))
	fmt.Fprintf(out, "  LLM_API_KEY:      %s\n", maskKey(cfg.LLMAPIKey))
	fmt.Fprintln(out)

	if cfg.LLMAPIKey == "" {
		fmt.Fprintln(out, "⚠️  LLM_API_KEY is required. Set it via environment variable or --api-key flag.")
		return nil
	}

	fmt.Fprintf(out, "Fetching models from %s/models...\n\n", strings.TrimSuffix(baseURL, "/"))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := llm.NewClient(cfg.LLMAPIKey, llm.WithBaseURL(cfg.LLMBaseURL), llm.WithMaxRetries(0))
	models, err := client.ListModels(ctx)
	if err != nil {
		fmt.Fprintf(out, "⚠️  Could not fetch models: %v\n\n", err)
		fmt.Fprintln(out, "Tip: Your API provider may not support the /models endpoint.")
		fmt.Fprintln(out, "     You can still use models by setting LLM_MODEL and LLM_VISION_MODEL directly.")
		return nil
	}

	if len(models) == 0 {
		fmt.Fprintln(out, "No models returned from API.")
		return nil
	}

	sort.Slice(models, func(i, j int) bool {
		return models[i].ID < models[j].ID
	})

	fmt.Fprintf(out, "Available Models (%d):\n", len(models))
	fmt.Fprintln(out, "=====================")
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODEL ID\tOWNER\tCREATED")
	fmt.Fprintln(w, "--------\t-----\t-------")

	for _, m := range models {
		created := ""
		if m.Created > 0 {
			created = time.Unix(m.Created, 0).Format("2006-01-02")
		}
		owner := m.OwnedBy
		if owner == "" {
			owner = inferProvider(m.ID)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", m.ID, owner, created)
	}
	return w.Flush()
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func maskKey(key string) string {
	switch {
	case key == "":
		return "Not set"
	case len(key) > 8:
		return "Set (" + key[:8] + "...)"
	default:
		return "Set"
	}
}

// inferProvider tries to infer the provider from model ID
func inferProvider(modelID string) string {
	modelID = strings.ToLower(modelID)

	switch {
	case strings.Contains(modelID, "claude") || strings.Contains(modelID, "anthropic"):
		return "anthropic"
	case strings.Contains(modelID, "gpt") || strings.Contains(modelID, "openai") || strings.Contains(modelID, "o1"):
		return "openai"
	case strings.Contains(modelID, "gemini") || strings.Contains(modelID, "google"):
		return "google"
	case strings.Contains(modelID, "llama") || strings.Contains(modelID, "meta"):
		return "meta"
	case strings.Contains(modelID, "mistral") || strings.Contains(modelID, "mixtral"):
		return "mistral"
	case strings.Contains(modelID, "qwen"):
		return "alibaba"
	case strings.Contains(modelID, "deepseek"):
		return "deepseek"
	}

	return "-"
}
