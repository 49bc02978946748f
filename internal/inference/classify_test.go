package inference

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	loading := []byte(`{"error":"Model black-forest-labs/FLUX.1-schnell is currently loading","estimated_time":20}`)

	tests := []struct {
		name    string
		attempt Attempt
		expect  Expect
		kind    Kind
		reason  ErrorKind
		mime    string
	}{
		{
			name:    "png on image endpoint",
			attempt: Attempt{StatusCode: 200, ContentType: "image/png", Body: []byte{0x89, 'P', 'N', 'G'}},
			expect:  ExpectImage,
			kind:    KindBinarySuccess,
			mime:    "image/png",
		},
		{
			name:    "content type parameters are ignored",
			attempt: Attempt{StatusCode: 200, ContentType: "Image/JPEG; charset=binary", Body: []byte("x")},
			expect:  ExpectImage,
			kind:    KindBinarySuccess,
			mime:    "image/jpeg",
		},
		{
			name:    "mp4 on video endpoint",
			attempt: Attempt{StatusCode: 200, ContentType: "video/mp4", Body: []byte("x")},
			expect:  ExpectVideo,
			kind:    KindBinarySuccess,
			mime:    "video/mp4",
		},
		{
			name:    "json on chat endpoint",
			attempt: Attempt{StatusCode: 200, ContentType: "application/json", Body: []byte(`{"choices":[]}`)},
			expect:  ExpectJSON,
			kind:    KindStructuredSuccess,
			mime:    "application/json",
		},
		{
			name:    "503 retries",
			attempt: Attempt{StatusCode: 503, Body: []byte("unavailable")},
			expect:  ExpectImage,
			kind:    KindRetryable,
		},
		{
			name:    "202 retries even though it is 2xx",
			attempt: Attempt{StatusCode: 202, ContentType: "image/png"},
			expect:  ExpectImage,
			kind:    KindRetryable,
		},
		{
			name:    "loading body on 500",
			attempt: Attempt{StatusCode: 500, ContentType: "application/json", Body: loading},
			expect:  ExpectImage,
			kind:    KindRetryable,
		},
		{
			name:    "loading match is case insensitive",
			attempt: Attempt{StatusCode: 400, Body: []byte(`{"error":"LOADING weights"}`)},
			expect:  ExpectVideo,
			kind:    KindRetryable,
		},
		{
			name:    "429 is fatal even with a loading body",
			attempt: Attempt{StatusCode: 429, Body: loading},
			expect:  ExpectImage,
			kind:    KindFatal,
			reason:  ErrRateLimited,
		},
		{
			name:    "402 is fatal",
			attempt: Attempt{StatusCode: 402, Body: []byte(`{"error":"payment required"}`)},
			expect:  ExpectJSON,
			kind:    KindFatal,
			reason:  ErrQuotaExhausted,
		},
		{
			name:    "200 with json on image endpoint",
			attempt: Attempt{StatusCode: 200, ContentType: "application/json", Body: []byte(`{"ok":true}`)},
			expect:  ExpectImage,
			kind:    KindFatal,
			reason:  ErrRejected,
		},
		{
			name:    "non-loading error object",
			attempt: Attempt{StatusCode: 400, Body: []byte(`{"error":"bad input"}`)},
			expect:  ExpectImage,
			kind:    KindFatal,
			reason:  ErrRejected,
		},
		{
			name:    "error field that is not a string",
			attempt: Attempt{StatusCode: 500, Body: []byte(`{"error":{"message":"loading"}}`)},
			expect:  ExpectImage,
			kind:    KindFatal,
			reason:  ErrRejected,
		},
		{
			name:    "plain text 500",
			attempt: Attempt{StatusCode: 500, Body: []byte("loading")},
			expect:  ExpectImage,
			kind:    KindFatal,
			reason:  ErrRejected,
		},
		{
			name:    "transport error",
			attempt: Attempt{Err: errors.New("connection refused")},
			expect:  ExpectImage,
			kind:    KindFatal,
			reason:  ErrTransport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Classify(tt.attempt, tt.expect)
			assert.Equal(t, tt.kind, out.Kind)
			assert.Equal(t, tt.reason, out.Reason)
			if tt.mime != "" {
				assert.Equal(t, tt.mime, out.MIMEType)
				assert.Equal(t, tt.attempt.Body, out.Body)
			}
			if out.Kind != KindFatal {
				assert.Empty(t, out.Reason)
			}
		})
	}
}

func TestClassifyTruncatesDetail(t *testing.T) {
	body := make([]byte, 4*maxDetail)
	for i := range body {
		body[i] = 'a'
	}

	out := Classify(Attempt{StatusCode: 500, Body: body}, ExpectImage)
	assert.Less(t, len(out.Detail), 2*maxDetail)
}
