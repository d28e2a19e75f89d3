package extractor

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	dataURLPrefix = regexp.MustCompile(`^data:image/[^;,]*;base64,`)
	base64Payload = regexp.MustCompile(`^[A-Za-z0-9+/]*={0,2}$`)

	// Line breaks may appear inside a run; payloads are sometimes wrapped.
	dataURLPattern    = regexp.MustCompile(`data:image/[A-Za-z0-9.+-]+;base64,([A-Za-z0-9+/]+(?:\r?\n[A-Za-z0-9+/]+)*={0,2})`)
	imageFieldPattern = regexp.MustCompile(`"image"\s*:\s*"([^"]+)"`)
	base64RunPattern  = regexp.MustCompile(`[A-Za-z0-9+/]+(?:\r?\n[A-Za-z0-9+/]+)*={0,2}`)
)

// strategy proposes a candidate payload. doc is the decoded JSON body, or nil
// when the body is not valid JSON.
type strategy struct {
	name string
	find func(raw string, doc any) (string, bool)
}

// strategies run in order; the first candidate wins even if it then fails validation.
var strategies = []strategy{
	{name: "json.image", find: jsonField("image")},
	{name: "json.data", find: jsonField("data")},
	{name: "json.base64", find: jsonField("base64")},
	{name: "json.data.image", find: jsonField("data", "image")},
	{name: "json.string", find: jsonBareString},
	{name: "pattern.data_url", find: findDataURL},
	{name: "pattern.image_field", find: findImageField},
	{name: "pattern.base64_run", find: findBase64Run},
}

func jsonField(path ...string) func(string, any) (string, bool) {
	return func(_ string, doc any) (string, bool) {
		node := doc
		for _, key := range path {
			obj, ok := node.(map[string]any)
			if !ok {
				return "", false
			}
			if node, ok = obj[key]; !ok {
				return "", false
			}
		}
		value, ok := node.(string)
		if !ok || value == "" {
			return "", false
		}
		return value, true
	}
}

func jsonBareString(_ string, doc any) (string, bool) {
	value, ok := doc.(string)
	if !ok || len(value) <= bareStringMinLength {
		return "", false
	}
	return value, true
}

func findDataURL(raw string, _ any) (string, bool) {
	match := dataURLPattern.FindStringSubmatch(raw)
	if match == nil {
		return "", false
	}
	return match[1], true
}

func findImageField(raw string, _ any) (string, bool) {
	match := imageFieldPattern.FindStringSubmatch(raw)
	if match == nil {
		return "", false
	}

	// The fragment is JSON text, so escapes such as \/ and \n may still be present.
	var unquoted string
	if err := json.Unmarshal([]byte(`"`+match[1]+`"`), &unquoted); err == nil {
		return unquoted, true
	}
	return match[1], true
}

func findBase64Run(raw string, _ any) (string, bool) {
	for _, run := range base64RunPattern.FindAllString(raw, -1) {
		if len(run)-strings.Count(run, "\n")-strings.Count(run, "\r") >= MinPayloadLength {
			return run, true
		}
	}
	return "", false
}
