package extractor

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/phambaophuc/image-generator/internal/apperrs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// payloadOfLength returns valid base64 with exactly n characters (n divisible by 4).
func payloadOfLength(t *testing.T, n int) string {
	t.Helper()
	require.Zero(t, n%4)

	buf := make([]byte, n/4*3)
	_, err := rand.Read(buf)
	require.NoError(t, err)

	encoded := base64.StdEncoding.EncodeToString(buf)
	require.Len(t, encoded, n)
	return encoded
}

func jsonBody(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestExtract_EmptyInput(t *testing.T) {
	for _, raw := range []string{"", " ", "\n\t  \r\n"} {
		res := Extract(raw)
		assert.Equal(t, OutcomeNotFound, res.Outcome)
		assert.Empty(t, res.Payload)
	}
}

func TestExtract_ImageKeyScenario(t *testing.T) {
	raw := `{"image":"` + strings.Repeat("A", 1200) + `"}`

	res := Extract(raw)

	require.Equal(t, OutcomeFound, res.Outcome)
	assert.Len(t, res.Payload, 1200)
	assert.Equal(t, "json.image", res.Strategy)
}

func TestExtract_PlainTextScenario(t *testing.T) {
	res := Extract("not json at all, just some text")

	assert.Equal(t, OutcomeNotFound, res.Outcome)
	assert.Empty(t, res.Payload)
	assert.NotEmpty(t, res.Diagnostic)
}

func TestExtract_DataURLEmbeddedInText(t *testing.T) {
	payload := payloadOfLength(t, 1500)
	raw := "Here is your image: data:image/png;base64," + payload + " generated in 12s. Enjoy!"

	res := Extract(raw)

	require.Equal(t, OutcomeFound, res.Outcome)
	assert.Equal(t, payload, res.Payload)
	assert.Equal(t, "pattern.data_url", res.Strategy)
}

func TestExtract_JSONKeyPriority(t *testing.T) {
	image := payloadOfLength(t, 1200)
	data := payloadOfLength(t, 1600)
	b64 := payloadOfLength(t, 2000)
	nested := payloadOfLength(t, 2400)

	tests := []struct {
		name         string
		body         any
		wantPayload  string
		wantStrategy string
	}{
		{
			name:         "image wins over everything",
			body:         map[string]any{"image": image, "data": data, "base64": b64},
			wantPayload:  image,
			wantStrategy: "json.image",
		},
		{
			name:         "data string before base64",
			body:         map[string]any{"data": data, "base64": b64},
			wantPayload:  data,
			wantStrategy: "json.data",
		},
		{
			name:         "empty image is skipped",
			body:         map[string]any{"image": "", "base64": b64},
			wantPayload:  b64,
			wantStrategy: "json.base64",
		},
		{
			name:         "nested data.image when data is an object",
			body:         map[string]any{"data": map[string]any{"image": nested}},
			wantPayload:  nested,
			wantStrategy: "json.data.image",
		},
		{
			name:         "base64 before nested data.image",
			body:         map[string]any{"base64": b64, "data": map[string]any{"image": nested}},
			wantPayload:  b64,
			wantStrategy: "json.base64",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Extract(jsonBody(t, tt.body))
			require.Equal(t, OutcomeFound, res.Outcome, res.Diagnostic)
			assert.Equal(t, tt.wantPayload, res.Payload)
			assert.Equal(t, tt.wantStrategy, res.Strategy)
		})
	}
}

func TestExtract_ImageKeyWithDataURLPrefix(t *testing.T) {
	payload := payloadOfLength(t, 2000)

	res := Extract(jsonBody(t, map[string]string{"image": "data:image/jpeg;base64," + payload}))

	require.Equal(t, OutcomeFound, res.Outcome)
	assert.Equal(t, payload, res.Payload)
}

func TestExtract_DataURLWrappedPayload(t *testing.T) {
	payload := payloadOfLength(t, 1200)

	res := Extract("data:image/png;base64," + payload)

	require.Equal(t, OutcomeFound, res.Outcome)
	assert.Equal(t, payload, res.Payload)
}

func TestExtract_BareJSONString(t *testing.T) {
	payload := payloadOfLength(t, 1600)

	res := Extract(`"` + payload + `"`)

	require.Equal(t, OutcomeFound, res.Outcome)
	assert.Equal(t, "json.string", res.Strategy)
	assert.Equal(t, payload, res.Payload)
}

func TestExtract_ShortBareJSONStringFallsThrough(t *testing.T) {
	res := Extract(`"just a short message"`)

	assert.Equal(t, OutcomeNotFound, res.Outcome)
}

func TestExtract_UnmatchedKeysFallBackToRawText(t *testing.T) {
	payload := payloadOfLength(t, 1200)

	res := Extract(jsonBody(t, map[string]any{"result": map[string]string{"file": payload}}))

	require.Equal(t, OutcomeFound, res.Outcome)
	assert.Equal(t, "pattern.base64_run", res.Strategy)
	assert.Equal(t, payload, res.Payload)
}

func TestExtract_ImageFragmentInInvalidJSON(t *testing.T) {
	payload := payloadOfLength(t, 1200)
	escaped := strings.ReplaceAll(payload, "/", `\/`)
	raw := "```json\n{\"status\": \"ok\", \"image\": \"" + escaped + "\",}\n```"

	res := Extract(raw)

	require.Equal(t, OutcomeFound, res.Outcome, res.Diagnostic)
	assert.Equal(t, "pattern.image_field", res.Strategy)
	assert.Equal(t, payload, res.Payload)
}

func TestExtract_LineWrappedPayload(t *testing.T) {
	payload := payloadOfLength(t, 1520)
	var wrapped strings.Builder
	for i := 0; i < len(payload); i += 76 {
		end := min(i+76, len(payload))
		wrapped.WriteString(payload[i:end])
		wrapped.WriteString("\r\n")
	}

	t.Run("inside json key", func(t *testing.T) {
		res := Extract(jsonBody(t, map[string]string{"image": wrapped.String()}))
		require.Equal(t, OutcomeFound, res.Outcome)
		assert.Equal(t, payload, res.Payload)
	})

	t.Run("bare text", func(t *testing.T) {
		res := Extract("--\n" + wrapped.String())
		require.Equal(t, OutcomeFound, res.Outcome)
		assert.Equal(t, "pattern.base64_run", res.Strategy)
		assert.Equal(t, payload, res.Payload)
	})
}

func TestExtract_LengthBoundary(t *testing.T) {
	res := Extract(jsonBody(t, map[string]string{"image": strings.Repeat("A", 999)}))
	assert.Equal(t, OutcomeInvalid, res.Outcome)
	assert.Contains(t, res.Diagnostic, "too short")
	assert.Empty(t, res.Payload)

	res = Extract(jsonBody(t, map[string]string{"image": strings.Repeat("A", 1000)}))
	assert.Equal(t, OutcomeFound, res.Outcome)
	assert.Len(t, res.Payload, 1000)
}

func TestExtract_BadAlphabet(t *testing.T) {
	payload := payloadOfLength(t, 2000)

	for _, pos := range []int{0, 999, 1999} {
		for _, bad := range []string{"!", "-", "_", "*"} {
			broken := payload[:pos] + bad + payload[pos+1:]
			res := Extract(jsonBody(t, map[string]string{"image": broken}))
			assert.Equal(t, OutcomeInvalid, res.Outcome, "pos %d char %q", pos, bad)
			assert.Contains(t, res.Diagnostic, "bad alphabet")
		}
	}
}

func TestExtract_TooMuchPadding(t *testing.T) {
	res := Extract(jsonBody(t, map[string]string{"image": strings.Repeat("A", 1200) + "==="}))

	assert.Equal(t, OutcomeInvalid, res.Outcome)
	assert.Contains(t, res.Diagnostic, "bad alphabet")
}

func TestExtract_FirstCandidateWinsEvenWhenInvalid(t *testing.T) {
	body := map[string]string{
		"image":  "too-short",
		"base64": payloadOfLength(t, 1200),
	}

	res := Extract(jsonBody(t, body))

	assert.Equal(t, OutcomeInvalid, res.Outcome)
	assert.Equal(t, "json.image", res.Strategy)
}

func TestExtract_ShortDataURLIsInvalid(t *testing.T) {
	res := Extract("see data:image/png;base64,iVBORw0KGgo= for details")

	assert.Equal(t, OutcomeInvalid, res.Outcome)
	assert.Contains(t, res.Diagnostic, "too short")
}

func TestExtract_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		`{"image":"` + strings.Repeat("B", 1300) + `"}`,
		"data:image/png;base64," + payloadOfLength(t, 1200),
		`{"image":"short"}`,
	}

	for _, raw := range inputs {
		assert.Equal(t, Extract(raw), Extract(raw))
	}
}

func TestResult_Err(t *testing.T) {
	assert.NoError(t, Result{Outcome: OutcomeFound}.Err())
	assert.ErrorIs(t, Result{Outcome: OutcomeNotFound}.Err(), apperrs.ErrMalformedPayload)
	assert.ErrorIs(t, Result{Outcome: OutcomeInvalid}.Err(), apperrs.ErrInvalidImageData)
}

func TestResult_Decode(t *testing.T) {
	raw := []byte("\x89PNG\r\n\x1a\n" + strings.Repeat("x", 1000))
	res := Extract(jsonBody(t, map[string]string{"image": base64.StdEncoding.EncodeToString(raw)}))
	require.True(t, res.Found())

	decoded, err := res.Decode()
	require.NoError(t, err)
	assert.Equal(t, raw, decoded)

	_, err = Result{Outcome: OutcomeNotFound}.Decode()
	assert.ErrorIs(t, err, apperrs.ErrMalformedPayload)
}

func TestExtract_EmptyImageFragmentIsSkipped(t *testing.T) {
	payload := payloadOfLength(t, 1200)
	raw := `{"image": "", "fallback": "` + payload + `",}`

	res := Extract(raw)

	require.Equal(t, OutcomeFound, res.Outcome, res.Diagnostic)
	assert.Equal(t, "pattern.base64_run", res.Strategy)
	assert.Equal(t, payload, res.Payload)
}
