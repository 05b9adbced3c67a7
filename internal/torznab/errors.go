// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package torznab

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"

	"golang.org/x/net/html/charset"
)

// APIError is the <error code="..." description="..."/> document an indexer returns
// instead of a feed, usually with a 200 status.
type APIError struct {
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("torznab error %d: %s", e.Code, e.Description)
}

// CheckError returns an *APIError when the payload's root element is a Torznab error.
// Anything else, including malformed XML, returns nil and is left to Parse.
func CheckError(payload []byte) error {
	decoder := xml.NewDecoder(bytes.NewReader(payload))
	decoder.CharsetReader = charset.NewReaderLabel

	for {
		tok, err := decoder.Token()
		if err != nil {
			return nil
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local != "error" {
			return nil
		}

		apiErr := &APIError{}
		for _, attr := range start.Attr {
			switch attr.Name.Local {
			case "code":
				apiErr.Code, _ = strconv.Atoi(attr.Value)
			case "description":
				apiErr.Description = attr.Value
			}
		}
		return apiErr
	}
}
