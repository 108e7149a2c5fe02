// Package validator implements the inbound ChatRequest validation rules
// from spec.md sections 3 and 7: non-empty messages with non-empty
// content, temperature in [0,2], and a positive max_tokens.
package validator

import (
	"fmt"
	"strings"

	"github.com/langdock/gateway-core/internal/models"
)

// ValidationErrors collects every rule violation found in one request,
// matching the teacher's *ValidationErrors shape. internal/gateway's
// handler uses only its Error() text.
type ValidationErrors struct {
	Errors []string
}

func (v *ValidationErrors) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(v.Errors, "; "))
}

func (v *ValidationErrors) add(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

var validRoles = map[models.Role]bool{
	models.RoleSystem:    true,
	models.RoleUser:      true,
	models.RoleAssistant: true,
}

// ValidateRequest checks a ChatRequest against every rule in spec.md
// section 3/7. It returns nil if the request is valid, or a
// *ValidationErrors listing every violation found (not just the first).
func ValidateRequest(req *models.ChatRequest) error {
	verrs := &ValidationErrors{}

	if len(req.Messages) == 0 {
		verrs.add("messages must not be empty")
	}
	for i, m := range req.Messages {
		if strings.TrimSpace(m.Content) == "" {
			verrs.add("messages[%d].content must not be empty", i)
		}
		if !validRoles[m.Role] {
			verrs.add("messages[%d].role %q is not one of system|user|assistant", i, m.Role)
		}
	}

	if req.Temperature != nil {
		t := *req.Temperature
		if t < 0 || t > 2 {
			verrs.add("temperature %v must be in [0, 2]", t)
		}
	}

	if req.MaxTokens != nil && *req.MaxTokens <= 0 {
		verrs.add("maxTokens must be a positive integer")
	}

	if len(verrs.Errors) > 0 {
		return verrs
	}
	return nil
}
