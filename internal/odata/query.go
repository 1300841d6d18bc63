package odata

import (
	"net/url"
	"strconv"
)

// Query carries the OData 3.0 system query options the endpoint supports.
// The zero value means "no options".
type Query struct {
	Filter      string
	Expand      string
	Select      string
	OrderBy     string
	Top         int
	Skip        int
	InlineCount bool // adds $inlinecount=allpages, surfacing odata.count
}

// Encode renders the options as a query string. url.Values percent-encodes
// the option names, producing the %24-escaped form the endpoint requires.
func (q Query) Encode() string {
	v := url.Values{}
	if q.Filter != "" {
		v.Set("$filter", q.Filter)
	}
	if q.Expand != "" {
		v.Set("$expand", q.Expand)
	}
	if q.Select != "" {
		v.Set("$select", q.Select)
	}
	if q.OrderBy != "" {
		v.Set("$orderby", q.OrderBy)
	}
	if q.Top > 0 {
		v.Set("$top", strconv.Itoa(q.Top))
	}
	if q.Skip > 0 {
		v.Set("$skip", strconv.Itoa(q.Skip))
	}
	if q.InlineCount {
		v.Set("$inlinecount", "allpages")
	}
	return v.Encode()
}
