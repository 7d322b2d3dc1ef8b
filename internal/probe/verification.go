package probe

import (
	"encoding/json"
	"fmt"

	"github.com/google/go-cmp/cmp"
)

// templateNameKey is the single key of a match response.
const templateNameKey = "template_name"

// verifyResponse checks one response against its case.
func verifyResponse(c Case, status int, body []byte) error {
	if status != StatusOK {
		return fmt.Errorf("unexpected status %d: %s", status, body)
	}

	var got map[string]string
	if err := json.Unmarshal(body, &got); err != nil {
		return fmt.Errorf("response is not a string map: %w", err)
	}

	if c.ExpectTemplate != "" {
		name, ok := got[templateNameKey]
		if !ok || len(got) != 1 {
			return fmt.Errorf("expected template %q, got field types %v", c.ExpectTemplate, got)
		}
		if name != c.ExpectTemplate {
			return fmt.Errorf("expected template %q, got %q", c.ExpectTemplate, name)
		}
		return nil
	}

	if diff := cmp.Diff(c.ExpectTypes, got); diff != "" {
		return fmt.Errorf("field types mismatch (-want +got):\n%s", diff)
	}
	return nil
}
