package training

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/philm28/always/internal/models"
)

// AnalysisErrorMarker replaces a partial analysis whose reply was not valid
// JSON. The pipeline carries the marker forward instead of aborting.
const AnalysisErrorMarker = `{"error":"malformed analysis response"}`

// stripFences removes a markdown code fence around a JSON reply. Models
// frequently wrap JSON in ```json blocks despite being told not to.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ParsePartialAnalysis validates a stage-2/3 reply as JSON. Malformed replies
// are substituted with AnalysisErrorMarker rather than failing the pipeline.
func ParsePartialAnalysis(raw string) string {
	cleaned := stripFences(raw)

	var probe map[string]interface{}
	if err := json.Unmarshal([]byte(cleaned), &probe); err != nil {
		return AnalysisErrorMarker
	}

	return cleaned
}

// ParseProfile parses the profile-synthesis reply. Unlike the partial
// analyses, a malformed profile is fatal to the pipeline.
func ParseProfile(raw string) (*models.PersonaProfile, error) {
	cleaned := stripFences(raw)

	var profile models.PersonaProfile
	if err := json.Unmarshal([]byte(cleaned), &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile JSON: %w", err)
	}
	if profile.Personality == "" {
		return nil, fmt.Errorf("profile JSON missing personality")
	}

	return &profile, nil
}
