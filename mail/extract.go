package mail

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"google.golang.org/api/gmail/v1"
)

// extractBody walks a message payload tree depth-first, left to right, and
// returns the first non-empty text it finds. Earlier parts win over later
// ones, so inline attachments further down the tree never shadow the real
// body. A tree with no text/plain or text/html leaf yields "", which is a
// valid outcome, not an error.
func extractBody(part *gmail.MessagePart) (string, error) {
	if part == nil {
		return "", nil
	}

	if len(part.Parts) > 0 {
		for _, child := range part.Parts {
			body, err := extractBody(child)
			if err != nil {
				return "", err
			}
			if body != "" {
				return body, nil
			}
		}
		return "", nil
	}

	if part.Body == nil || part.Body.Data == "" {
		return "", nil
	}

	switch part.MimeType {
	case "text/plain":
		return decodeBody(part.Body.Data)
	case "text/html":
		markup, err := decodeBody(part.Body.Data)
		if err != nil {
			return "", err
		}
		return htmlToText(markup)
	default:
		return "", nil
	}
}

// decodeBody decodes a base64url message body. Gmail omits padding on some
// payloads, so both forms are accepted. Malformed base64 and non-UTF-8
// content are hard failures: the message is undecodable, not empty.
func decodeBody(data string) (string, error) {
	raw, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		raw, err = base64.RawURLEncoding.DecodeString(data)
	}
	if err != nil {
		return "", fmt.Errorf("decode message body: %w", err)
	}
	if !utf8.Valid(raw) {
		return "", errors.New("message body is not valid UTF-8")
	}
	return string(raw), nil
}

// htmlToText strips markup from an HTML body, keeping only its text.
func htmlToText(markup string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("parse html body: %w", err)
	}
	return doc.Text(), nil
}

// header returns the value of the first header whose name matches wanted,
// case-insensitively. A missing header yields the empty string.
func header(headers []*gmail.MessagePartHeader, wanted string) string {
	for _, h := range headers {
		if strings.EqualFold(h.Name, wanted) {
			return h.Value
		}
	}
	return ""
}
