package client

import (
	"net/url"
	"strconv"

	"github.com/gclaussn/go-bpmn-query/http/common"
	"github.com/gclaussn/go-bpmn-query/projection"
)

func encodeQueryOptions(options projection.QueryOptions) string {
	values := make(url.Values)

	if options.Offset > 0 {
		values.Add(common.QueryOffset, strconv.Itoa(options.Offset))
	}
	if options.Limit > 0 {
		values.Add(common.QueryLimit, strconv.Itoa(options.Limit))
	}

	if len(values) == 0 {
		return ""
	}

	return "?" + values.Encode()
}

func resolve(path string, kind projection.Kind, id string) string {
	return common.ResolveKind(path, kind, url.PathEscape(id))
}
