package model

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Question is the canonical, immutable question used throughout the client.
type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// RawQuestion accepts both field-name variants seen on the wire:
// id/_id and questionText/text.
type RawQuestion struct {
	ID           FlexibleID `json:"id,omitempty"`
	MongoID      FlexibleID `json:"_id,omitempty"`
	QuestionText string     `json:"questionText,omitempty"`
	Text         string     `json:"text,omitempty"`
	Options      []string   `json:"options"`
}

// Normalize folds the variants into a Question. The first non-empty variant wins.
func (r RawQuestion) Normalize() Question {
	id := string(r.ID)
	if id == "" {
		id = string(r.MongoID)
	}
	text := r.QuestionText
	if text == "" {
		text = r.Text
	}
	opts := make([]string, len(r.Options))
	copy(opts, r.Options)

	return Question{ID: id, Text: text, Options: opts}
}

// FlexibleID decodes an identifier sent either as a JSON string or a number.
type FlexibleID string

func (f *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexibleID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if _, err := strconv.ParseFloat(string(n), 64); err != nil {
		return err
	}
	*f = FlexibleID(n.String())
	return nil
}
