package client

import (
	"encoding/base64"
	"errors"
	"regexp"
	"strings"
)

// Asset is a binary generation result.
type Asset struct {
	Data     []byte
	MIMEType string
}

// DataURI renders the asset as data:{mime};base64,{payload}.
func (a *Asset) DataURI() string {
	return "data:" + a.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(a.Data)
}

var dataURIPattern = regexp.MustCompile(`^data:([^;]+);base64,(.+)$`)

var ErrNotDataURI = errors.New("not a base64 data URI")

// IsDataURI reports whether s has the data:{mime};base64,{payload} shape.
func IsDataURI(s string) bool {
	return dataURIPattern.MatchString(s)
}

// ParseDataURI splits a data URI into its MIME type and base64 payload without decoding it.
func ParseDataURI(s string) (mimeType, payload string, err error) {
	m := dataURIPattern.FindStringSubmatch(s)
	if m == nil {
		return "", "", ErrNotDataURI
	}
	return strings.ToLower(m[1]), m[2], nil
}

// DecodeDataURI parses and decodes a data URI into an Asset.
func DecodeDataURI(s string) (*Asset, error) {
	mimeType, payload, err := ParseDataURI(s)
	if err != nil {
		return nil, err
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, err
	}
	return &Asset{Data: data, MIMEType: mimeType}, nil
}
