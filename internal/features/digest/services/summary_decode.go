package services

import (
	"fmt"
	"strings"

	"ainews/internal/features/digest/models"

	"github.com/tidwall/gjson"
)

// decodeSummary reads a provider's JSON answer leniently: a surrounding
// markdown fence is ignored, and bullets or hashtags may come as a list or
// as a single string.
func decodeSummary(raw string) (*models.SummaryDraft, error) {
	body := stripCodeFence(raw)
	if !gjson.Valid(body) {
		return nil, fmt.Errorf("%w: body is not JSON", ErrMalformedResponse)
	}

	res := gjson.Parse(body)
	if !res.IsObject() {
		return nil, fmt.Errorf("%w: body is not a JSON object", ErrMalformedResponse)
	}

	draft := &models.SummaryDraft{
		TitleVI:     strings.TrimSpace(res.Get("title_vi").String()),
		Bullets:     listField(res.Get("bullets"), splitLines),
		SoWhatVN:    strings.TrimSpace(res.Get("so_what_vn").String()),
		Hashtags:    listField(res.Get("hashtags"), splitTags),
		Attribution: strings.TrimSpace(res.Get("attribution").String()),
		URL:         strings.TrimSpace(res.Get("url").String()),
	}

	if draft.TitleVI == "" && len(draft.Bullets) == 0 {
		return nil, fmt.Errorf("%w: neither title_vi nor bullets present", ErrMalformedResponse)
	}
	return draft, nil
}

func listField(r gjson.Result, split func(string) []string) []string {
	if !r.Exists() {
		return nil
	}
	if r.IsArray() {
		var out []string
		for _, item := range r.Array() {
			if s := strings.TrimSpace(item.String()); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return split(r.String())
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-•*"))
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func splitTags(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '\t'
	})
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
