package sovdev

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// exceptionType is emitted for every exception regardless of the Go error
	// type: cross-language dashboards key on a single literal.
	exceptionType = "Error"

	redactedMessage = "[REDACTED - Contains sensitive data]"

	maxStackBytes = 350
)

// exceptionDetail is the normalized (type, message, stack) triple.
type exceptionDetail struct {
	Type    string
	Message string
	Stack   string
}

// sensitiveSubstrings trigger whole-message redaction when present
// case-insensitively in an error message.
var sensitiveSubstrings = []string{
	"password=", "token=", "apikey=", "api_key=",
	"secret=", "authorization:", "bearer ",
}

// stackScrubbers are applied to the stack rendering in order.
var stackScrubbers = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`(?i)Authorization[:\s]+\S+`), "Authorization: [REDACTED]"},
	{regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9\-._~+/]+=*`), "Bearer [REDACTED]"},
	{regexp.MustCompile(`(?i)api[-_]?key[:\s=]+\S+`), "api-key: [REDACTED]"},
	{regexp.MustCompile(`(?i)password[:\s=]+\S+`), "password: [REDACTED]"},
	{regexp.MustCompile(`[A-Za-z0-9\-_]+\.[A-Za-z0-9\-_]+\.[A-Za-z0-9\-_]+`), "[REDACTED-JWT]"},
	{regexp.MustCompile(`(?i)session[-_]?id[:\s=]+\S+`), "session-id: [REDACTED]"},
	{regexp.MustCompile(`(?i)Cookie[:\s]+[^\r\n]+`), "Cookie: [REDACTED]"},
}

// sanitizeException normalizes a Go error into the wire triple. The message is
// redacted wholesale when it carries credential material; the stack rendering
// is scrubbed pattern by pattern and capped at 350 bytes.
func sanitizeException(err error) *exceptionDetail {
	if err == nil {
		return nil
	}

	message := err.Error()
	lower := strings.ToLower(message)
	for _, pattern := range sensitiveSubstrings {
		if strings.Contains(lower, pattern) {
			message = redactedMessage
			break
		}
	}

	// Go errors carry no stack of their own; %+v picks one up from wrapped
	// errors that render it and degrades to the message otherwise.
	stack := fmt.Sprintf("%+v", err)
	for _, s := range stackScrubbers {
		stack = s.re.ReplaceAllString(stack, s.repl)
	}
	if len(stack) > maxStackBytes {
		stack = stack[:maxStackBytes]
	}

	return &exceptionDetail{
		Type:    exceptionType,
		Message: message,
		Stack:   stack,
	}
}
