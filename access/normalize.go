package access

import (
	"encoding/json"

	"github.com/otisthings/hub-sub000/models"
)

// Tolerant decoders for API fields that arrive in more than one encoding:
// a native JSON array/object, a JSON string containing serialized JSON, or
// arbitrary garbage. Decoding failure collapses to an empty collection so a
// malformed form renders with zero items instead of failing the request.

// NormalizeQuestions decodes an application's questions field
func NormalizeQuestions(raw json.RawMessage) []models.Question {
	if len(raw) == 0 {
		return []models.Question{}
	}

	var questions []models.Question
	if err := json.Unmarshal(raw, &questions); err == nil && questions != nil {
		return questions
	}

	// Double-encoded: a JSON string holding a serialized array.
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		if err := json.Unmarshal([]byte(encoded), &questions); err == nil && questions != nil {
			return questions
		}
	}

	return []models.Question{}
}

// NormalizeResponses decodes a submission's responses field
func NormalizeResponses(raw json.RawMessage) map[string]string {
	if len(raw) == 0 {
		return map[string]string{}
	}

	var responses map[string]string
	if err := json.Unmarshal(raw, &responses); err == nil && responses != nil {
		return responses
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		if err := json.Unmarshal([]byte(encoded), &responses); err == nil && responses != nil {
			return responses
		}
	}

	return map[string]string{}
}

// NormalizeAcceptedRoles decodes an application's accepted_roles field.
// Empty entries are dropped so they can never satisfy a membership check.
func NormalizeAcceptedRoles(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return []string{}
	}

	if roles, ok := decodeRoleList(raw); ok {
		return roles
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		if roles, ok := decodeRoleList([]byte(encoded)); ok {
			return roles
		}
	}

	return []string{}
}

func decodeRoleList(data []byte) ([]string, bool) {
	var roles []string
	if err := json.Unmarshal(data, &roles); err != nil {
		return nil, false
	}
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		if r != "" {
			out = append(out, r)
		}
	}
	return out, true
}
