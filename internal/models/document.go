// Package models defines the persisted account document.
package models

import "encoding/json"

// UserRecord is a single account. The JSON names match blobs written by the
// browser client, so "bonuses" carries the bonus balance.
type UserRecord struct {
	Password     string `json:"password"`
	BonusBalance int64  `json:"bonuses"`
	UserID       string `json:"userId"`
}

// Document is the whole user table, keyed by normalized username.
type Document struct {
	Users map[string]UserRecord `json:"users"`
}

// NewDocument returns the empty document used on first run.
func NewDocument() *Document {
	return &Document{Users: make(map[string]UserRecord)}
}

// ParseDocument decodes data and normalizes a missing users table to an
// empty map.
func ParseDocument(data []byte) (*Document, error) {
	doc := &Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, err
	}
	if doc.Users == nil {
		doc.Users = make(map[string]UserRecord)
	}
	return doc, nil
}

// Marshal encodes the document. encoding/json sorts map keys, so equal
// documents always produce equal bytes.
func (d *Document) Marshal() ([]byte, error) {
	if d.Users == nil {
		return json.Marshal(NewDocument())
	}
	return json.Marshal(d)
}
