package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/warp/revenue-engine/factory"
)

// =============================================================================
// GEMINI EXTRACTOR
// =============================================================================

// defaultModel is the Gemini model used for contract analysis.
const defaultModel = "gemini-2.0-flash"

// Gemini implements Extractor against the Google Gemini API.
// Requests are paced to one per second across all callers and retried with
// progressive backoff, so the struct is safe for concurrent use.
type Gemini struct {
	client  *genai.Client
	model   string
	limiter *rate.Limiter
	factory *factory.Factory
	log     zerolog.Logger
}

// NewGemini creates a Gemini-backed extractor. The API key is required;
// keys that do not look like Google AI Studio keys are accepted with a
// warning since test and proxy keys differ.
func NewGemini(ctx context.Context, apiKey string, log zerolog.Logger) (*Gemini, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if !strings.HasPrefix(apiKey, "AIza") {
		log.Warn().Msg("API key format may be incorrect (expected to start with 'AIza')")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Gemini{
		client:  client,
		model:   defaultModel,
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		factory: factory.New(log),
		log:     log,
	}, nil
}

// AnalyzeContract runs the combined extraction and five-step analysis and
// returns the normalized result.
func (g *Gemini) AnalyzeContract(ctx context.Context, contractText string) (*factory.AnalysisResult, error) {
	if err := ValidateText(contractText); err != nil {
		return nil, err
	}

	text := excerpt(contractText, AnalysisExcerptLimit)
	g.log.Info().Int("excerpt_chars", len(text)).Str("model", g.model).
		Msg("starting combined contract analysis")

	response, err := g.generate(ctx, analysisPrompt(text))
	if err != nil {
		return nil, fmt.Errorf("contract analysis failed: %w", err)
	}

	raw, err := ExtractJSON(response)
	if err != nil {
		return nil, fmt.Errorf("contract analysis failed: %w", err)
	}
	result, err := g.factory.ParseAnalysis(raw)
	if err != nil {
		return nil, fmt.Errorf("contract analysis failed: %w", err)
	}

	g.log.Info().
		Str("customer", result.ContractInfo.CustomerName).
		Str("vendor", result.ContractInfo.VendorName).
		Str("value", result.ContractInfo.TotalValue.String()).
		Str("start", result.ContractInfo.StartDate).
		Str("end", result.ContractInfo.EndDate).
		Msg("contract analysis complete")

	return result, nil
}

// IdentifyContractType classifies the contract document. Classification
// failures after input validation degrade to a low-confidence fallback
// instead of an error so the caller always has something to render.
func (g *Gemini) IdentifyContractType(ctx context.Context, contractText string) (*ContractTypeInfo, error) {
	if err := ValidateText(contractText); err != nil {
		return nil, err
	}

	text := excerpt(contractText, TypeExcerptLimit)
	g.log.Info().Int("excerpt_chars", len(text)).Msg("identifying contract type")

	info, err := g.classify(ctx, text)
	if err != nil {
		g.log.Error().Err(err).Msg("contract type identification failed; returning fallback")
		return fallbackTypeInfo(err), nil
	}

	g.log.Info().Str("contract_type", info.ContractType).Str("confidence", info.Confidence).
		Msg("contract type identified")
	return info, nil
}

func (g *Gemini) classify(ctx context.Context, text string) (*ContractTypeInfo, error) {
	response, err := g.generate(ctx, typePrompt(text))
	if err != nil {
		return nil, err
	}

	raw, err := ExtractJSON(response)
	if err != nil {
		return nil, err
	}

	var info ContractTypeInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("malformed classification response: %w", err)
	}
	if info.ContractType == "" || info.Confidence == "" || info.Reasoning == "" {
		return nil, errors.New("classification response missing required fields")
	}

	if !isKnownContractType(info.ContractType) {
		g.log.Warn().Str("contract_type", info.ContractType).Msg("unexpected contract type")
	}
	switch info.Confidence {
	case "high", "medium", "low":
	default:
		g.log.Warn().Str("confidence", info.Confidence).Msg("invalid confidence level")
	}

	return &info, nil
}

func isKnownContractType(t string) bool {
	for _, known := range knownContractTypes {
		if t == known {
			return true
		}
	}
	return false
}

// generate makes one paced, retried request and returns the trimmed
// response text. Backoff grows linearly with the attempt number.
func (g *Gemini) generate(ctx context.Context, prompt string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}

	var lastErr error
	for attempt := 1; attempt <= MaxRetries; attempt++ {
		g.log.Debug().Int("attempt", attempt).Int("max", MaxRetries).Msg("gemini request")

		resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
		if err == nil {
			text := strings.TrimSpace(resp.Text())
			if text != "" {
				return text, nil
			}
			err = errors.New("empty response from gemini API")
		}

		lastErr = err
		g.log.Warn().Err(err).Int("attempt", attempt).Msg("gemini request failed")

		if attempt < MaxRetries {
			select {
			case <-time.After(time.Duration(attempt) * time.Second):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	return "", fmt.Errorf("all %d gemini attempts failed: %w", MaxRetries, lastErr)
}
