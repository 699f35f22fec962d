package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"

	"github.com/user/listing-ingest/internal/domain"
	"github.com/user/listing-ingest/internal/sites"
)

// PhotoSelector asks an external vision/text-capable model which of the
// harvested candidate URLs are genuine listing photos. It receives the
// candidate list rather than the raw document to bound prompt size. Its
// output replaces, never merges with, the heuristic scorer's output.
type PhotoSelector struct {
	api       openai.Client
	model     string
	limiter   *RateLimiter
	retries   int
	retryWait time.Duration
	sleep     func(time.Duration)
	logger    *zap.Logger
}

// NewPhotoSelector returns nil when no API key is configured; the orchestrator
// treats a nil selector as the strategy being disabled.
func NewPhotoSelector(apiKey, baseURL, model string, limiter *RateLimiter, retries int, retryWait time.Duration, logger *zap.Logger) *PhotoSelector {
	if apiKey == "" {
		return nil
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if retries < 1 {
		retries = 1
	}
	return &PhotoSelector{
		api:       openai.NewClient(opts...),
		model:     model,
		limiter:   limiter,
		retries:   retries,
		retryWait: retryWait,
		sleep:     time.Sleep,
		logger:    logger,
	}
}

// SelectPhotos submits the candidate list to the model and returns the
// validated subset it picked, ordered by importance, capped at 6. Fails with
// *domain.AIExtractionError once the retry budget is exhausted.
func (s *PhotoSelector) SelectPhotos(ctx context.Context, profile sites.Profile, candidates []string) ([]string, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	prompt := buildSelectionPrompt(profile.DisplayName, candidates)
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You identify which image URLs from a marketplace listing page are genuine photos of the listed item. Respond with a JSON array of URLs only, most representative first, at most 6 entries. Exclude avatars, advertisements, recommended-item thumbnails and icons."),
			openai.UserMessage(prompt),
		},
	}

	var lastErr error
	for attempt := 0; attempt < s.retries; attempt++ {
		if attempt > 0 {
			s.sleep(s.retryWait)
		}
		s.limiter.Wait()

		resp, err := s.api.Chat.Completions.New(ctx, params)
		if err != nil {
			lastErr = err
			s.logger.Warn("model call failed", zap.Int("attempt", attempt+1), zap.Error(err))
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = errors.New("empty model response")
			continue
		}
		urls := ParsePhotoList(resp.Choices[0].Message.Content)
		if len(urls) == 0 {
			lastErr = errors.New("no valid URL array in model output")
			continue
		}
		return urls, nil
	}
	return nil, &domain.AIExtractionError{Reason: "photo selection failed", Err: lastErr}
}

func buildSelectionPrompt(siteName string, candidates []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Image URLs harvested from a %s listing page:\n", siteName)
	for _, c := range candidates {
		b.WriteString(c)
		b.WriteByte('\n')
	}
	b.WriteString("\nReturn the JSON array of listing photo URLs.")
	return b.String()
}

// ParsePhotoList parses the first well-formed JSON array found in the model's
// free-text output and keeps only absolute URLs on an allowlisted image CDN,
// deduplicated and capped at 6.
func ParsePhotoList(text string) []string {
	arr := firstJSONArray(text)
	if arr == "" {
		return nil
	}
	var raw []string
	if err := json.Unmarshal([]byte(arr), &raw); err != nil {
		return nil
	}

	seen := make(map[string]bool, len(raw))
	var out []string
	for _, s := range raw {
		s = strings.TrimSpace(s)
		u, err := url.Parse(s)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			continue
		}
		if !sites.AllowedImageHost(u.Hostname()) {
			continue
		}
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
		if len(out) == maxGalleryPhotos {
			break
		}
	}
	return out
}

func firstJSONArray(text string) string {
	for i := 0; i < len(text); i++ {
		if text[i] != '[' {
			continue
		}
		if arr := scanBalanced(text[i:]); arr != "" && json.Valid([]byte(arr)) {
			return arr
		}
	}
	return ""
}
