package wavespeed

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ds124wfegd/genrelay/internal/entity"
)

// parseSubmission keeps the body untouched and looks for the polling URL at
// urls.get, then at data.urls.get.
func parseSubmission(body []byte) (*entity.Submission, error) {
	doc, err := decode(body)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON in submission response: %w", err)
	}

	statusURL := lookupString(doc, "urls", "get")
	if statusURL == "" {
		statusURL = lookupString(doc, "data", "urls", "get")
	}

	return &entity.Submission{
		Raw:       json.RawMessage(body),
		StatusURL: statusURL,
	}, nil
}

// parseStatus unwraps an optional data envelope so callers only ever see the
// effective record.
func parseStatus(body []byte) (*entity.StatusRecord, error) {
	doc, err := decode(body)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON in status response: %w", err)
	}

	root, _ := doc.(map[string]interface{})
	if data, ok := root["data"].(map[string]interface{}); ok {
		root = data
	}

	record := &entity.StatusRecord{Record: root}
	record.Status, _ = root["status"].(string)
	record.Error, _ = root["error"].(string)
	return record, nil
}

// decode keeps numbers as json.Number so they re-encode exactly.
func decode(body []byte) (interface{}, error) {
	var doc interface{}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func lookupString(doc interface{}, path ...string) string {
	cur := doc
	for _, key := range path {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return ""
		}
		cur = m[key]
	}
	s, _ := cur.(string)
	return s
}
