package query

import (
	"net/url"

	"RestyAPI/internal/apierr"

	"github.com/gorilla/schema"
)

// Request is one list call: the parsed list-time parameters.
type Request struct {
	Page       uint64  `schema:"page"`
	OrderBy    *string `schema:"order_by"`
	SearchText *string `schema:"search_text"`
	Filter     *string `schema:"filter"`
	Count      bool    `schema:"count"`
}

var decoder = newDecoder()

func newDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(false)
	return d
}

// DecodeRequest builds a Request from already bound parameters.
func DecodeRequest(values url.Values) (Request, error) {
	var req Request
	if err := decoder.Decode(&req, values); err != nil {
		return Request{}, apierr.Validation("bad list parameters: %v", err)
	}
	return req, nil
}
