package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/refresh-agent/refresh-api/internal/completion"
	"github.com/refresh-agent/refresh-api/internal/models"
	"github.com/refresh-agent/refresh-api/internal/utils"
)

// Base document text budget for the generation prompt.
const maxBaseChars = 8000

// placeholderPattern matches the literal bracketed markers the generation
// prompt instructs the model to emit for undetermined values.
var placeholderPattern = regexp.MustCompile(`\[[A-Z][A-Z0-9 _-]*\]`)

// Synthesize generates a new document version grounded in the comparative
// analysis. The base document is used as structural and tonal template;
// predicted variable changes, user-requested changes, and organizational
// context are all applied by the model.
func (a *Analyzer) Synthesize(
	ctx context.Context,
	analysis *models.FamilyAnalysisResult,
	baseDocumentText string,
	userChanges string,
	targetPeriod string,
	organizationalContext string,
) (*models.SynthesisResult, error) {
	if !a.configured {
		return nil, utils.NewNotConfiguredError(
			"LLM credentials not configured. Set AZURE_OPENAI_ENDPOINT and AZURE_OPENAI_KEY.")
	}

	targetInfo := targetPeriod
	if targetInfo == "" {
		targetInfo = "next iteration"
	}

	analysisJSON, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return nil, utils.NewInternalError(fmt.Sprintf("failed to serialize family analysis: %v", err))
	}

	var userMsg strings.Builder
	fmt.Fprintf(&userMsg, "COMPARATIVE ANALYSIS:\n%s\n\n", analysisJSON)
	fmt.Fprintf(&userMsg, "MOST RECENT VERSION TEXT:\n%s\n\n", truncate(baseDocumentText, maxBaseChars))
	if organizationalContext != "" {
		fmt.Fprintf(&userMsg, "ORGANIZATIONAL CONTEXT (recently discovered changes in the organization - incorporate where relevant):\n%s\n\n", organizationalContext)
	}
	if userChanges != "" {
		fmt.Fprintf(&userMsg, "USER REQUESTED CHANGES:\n%s\n\n", userChanges)
	}
	userMsg.WriteString("Generate the complete new version.")

	raw, err := a.client.Complete(ctx, completion.Request{
		SystemPrompt: fmt.Sprintf(synthesisPrompt, targetInfo),
		UserContent:  userMsg.String(),
		Temperature:  0.3,
		MaxTokens:    4000,
		RequireJSON:  true,
		Deployment:   a.largeDeployment,
	})
	if err != nil {
		a.logger.Error("Synthesis completion failed", "error", err)
		return nil, err
	}

	var result models.SynthesisResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, utils.NewCompletionError("synthesis response did not match expected schema", err)
	}

	result.Warnings = reconcilePlaceholders(&result)

	a.logger.Info("Synthesis generation complete",
		"changes", len(result.ChangesApplied),
		"flags", len(result.Flags),
		"warnings", len(result.Warnings))

	return &result, nil
}

// reconcilePlaceholders checks the prompt-enforced contract that every
// bracketed placeholder in the generated text has a matching flags entry, and
// vice versa. Mismatches produce soft warnings, never a failure.
func reconcilePlaceholders(result *models.SynthesisResult) []string {
	flagged := make(map[string]bool, len(result.Flags))
	for _, flag := range result.Flags {
		flagged[flag.Placeholder] = true
	}

	inText := make(map[string]bool)
	for _, marker := range placeholderPattern.FindAllString(result.GeneratedText, -1) {
		inText[marker] = true
	}

	var warnings []string
	for marker := range inText {
		if !flagged[marker] {
			warnings = append(warnings, fmt.Sprintf("placeholder %s appears in generated text but has no flag entry", marker))
		}
	}
	for _, flag := range result.Flags {
		if flag.Placeholder != "" && !inText[flag.Placeholder] {
			warnings = append(warnings, fmt.Sprintf("flag %s (%s) has no matching placeholder in generated text", flag.Placeholder, flag.Field))
		}
	}
	return warnings
}
