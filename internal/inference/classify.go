package inference

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// Expect is the success family a caller is waiting for.
type Expect int

const (
	ExpectImage Expect = iota + 1
	ExpectVideo
	ExpectJSON
)

func (e Expect) String() string {
	switch e {
	case ExpectImage:
		return "image"
	case ExpectVideo:
		return "video"
	case ExpectJSON:
		return "json"
	}
	return "unknown"
}

// matches reports whether a response content type belongs to the binary family.
func (e Expect) matches(mediaType string) bool {
	switch e {
	case ExpectImage:
		return strings.HasPrefix(mediaType, "image/")
	case ExpectVideo:
		return strings.HasPrefix(mediaType, "video/")
	}
	return false
}

// Kind is the classification of a single upstream attempt.
type Kind int

const (
	KindBinarySuccess Kind = iota + 1
	KindStructuredSuccess
	KindRetryable
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindBinarySuccess:
		return "binary_success"
	case KindStructuredSuccess:
		return "structured_success"
	case KindRetryable:
		return "retryable"
	case KindFatal:
		return "fatal"
	}
	return "unknown"
}

// Attempt is the raw result of one HTTP call. It lives only until classified.
type Attempt struct {
	Number      int
	StatusCode  int
	ContentType string
	Body        []byte
	Err         error // transport failure, no response
	Elapsed     time.Duration
}

// Outcome is the classified attempt. Body carries the payload on success.
type Outcome struct {
	Kind       Kind
	StatusCode int
	MIMEType   string
	Body       []byte
	Reason     ErrorKind // set when Kind is KindFatal
	Detail     string
}

// Success reports whether the outcome carries a usable payload.
func (o Outcome) Success() bool {
	return o.Kind == KindBinarySuccess || o.Kind == KindStructuredSuccess
}

var loadingPattern = regexp.MustCompile(`(?i)loading`)

// maxDetail bounds how much upstream text is kept for logs and errors.
const maxDetail = 512

// Classify maps one attempt to an Outcome. Rules are checked in order and the
// first match wins: rate limit, quota, retry status, loading body, success by
// content family, everything else fatal.
func Classify(a Attempt, expect Expect) Outcome {
	out := Outcome{StatusCode: a.StatusCode}

	if a.Err != nil {
		out.Kind = KindFatal
		out.Reason = ErrTransport
		if errors.Is(a.Err, ErrResponseTooLarge) {
			out.Reason = ErrProtocol
		}
		out.Detail = a.Err.Error()
		return out
	}

	switch a.StatusCode {
	case http.StatusTooManyRequests:
		out.Kind = KindFatal
		out.Reason = ErrRateLimited
		out.Detail = snippet(a.Body)
		return out
	case http.StatusPaymentRequired:
		out.Kind = KindFatal
		out.Reason = ErrQuotaExhausted
		out.Detail = snippet(a.Body)
		return out
	case http.StatusServiceUnavailable, http.StatusAccepted:
		out.Kind = KindRetryable
		out.Detail = fmt.Sprintf("status %d: %s", a.StatusCode, snippet(a.Body))
		return out
	}

	if msg, ok := loadingMessage(a.Body); ok {
		out.Kind = KindRetryable
		out.Detail = msg
		return out
	}

	mediaType := parseMediaType(a.ContentType)
	if a.StatusCode >= 200 && a.StatusCode < 300 {
		switch {
		case expect == ExpectJSON:
			out.Kind = KindStructuredSuccess
			out.MIMEType = mediaType
			out.Body = a.Body
			return out
		case expect.matches(mediaType):
			out.Kind = KindBinarySuccess
			out.MIMEType = mediaType
			out.Body = a.Body
			return out
		}
		out.Kind = KindFatal
		out.Reason = ErrRejected
		out.Detail = fmt.Sprintf("expected %s content, got %q: %s", expect, a.ContentType, snippet(a.Body))
		return out
	}

	out.Kind = KindFatal
	out.Reason = ErrRejected
	out.Detail = fmt.Sprintf("status %d: %s", a.StatusCode, snippet(a.Body))
	return out
}

// loadingMessage returns the error string of a JSON body like
// {"error":"Model ... is currently loading"}.
func loadingMessage(body []byte) (string, bool) {
	if len(body) == 0 {
		return "", false
	}
	var parsed struct {
		Error any `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", false
	}
	msg, ok := parsed.Error.(string)
	if !ok || !loadingPattern.MatchString(msg) {
		return "", false
	}
	return msg, true
}

func parseMediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType, _, _ = strings.Cut(contentType, ";")
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxDetail {
		return s[:maxDetail] + "..."
	}
	return s
}
