package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gclaussn/go-bpmn-query/http/common"
	"github.com/gclaussn/go-bpmn-query/ingest"
	"github.com/gclaussn/go-bpmn-query/projection"
)

func New(url string, authorization string, customizers ...func(*Options)) (*Client, error) {
	if url == "" {
		return nil, errors.New("URL is empty")
	}
	if authorization == "" {
		return nil, errors.New("authorization is empty")
	}

	options := NewOptions()
	for _, customizer := range customizers {
		customizer(&options)
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}

	httpClient := http.Client{}

	if options.Configure != nil {
		options.Configure(&httpClient)
	}

	client := Client{
		httpClient:    &httpClient,
		url:           url,
		authorization: authorization,
		options:       options,
	}

	return &client, nil
}

func NewOptions() Options {
	return Options{
		Timeout: 40 * time.Second,
	}
}

type Options struct {
	Timeout time.Duration // Time limit for requests made by the HTTP client.

	// OnRequest is an optional function that accepts a [*http.Request]. It is called before a HTTP request is send.
	OnRequest func(*http.Request) error
	// OnResponse is an optional function that accepts a [*http.Response]. It is called after a HTTP response is returned.
	OnResponse func(*http.Response) error

	Configure func(*http.Client) // Optional function, used to configure the underlying HTTP client.
}

func (o Options) Validate() error {
	if o.Timeout <= 0 {
		return errors.New("timeout must be greater than 0")
	}
	return nil
}

// A Client sends events to and queries a remote store.
type Client struct {
	httpClient    *http.Client
	url           string
	authorization string
	options       Options
}

// Consume sends a batch of events for consumption.
func (c *Client) Consume(ctx context.Context, events []projection.Event) (ingest.ConsumeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.options.Timeout)
	defer cancel()

	var result ingest.ConsumeResult
	if err := c.do(ctx, http.MethodPost, common.PathEvents, common.ConsumeReq{Events: events}, &result); err != nil {
		return ingest.ConsumeResult{}, err
	}
	return result, nil
}

// DeleteAll deletes all entities of a specific kind.
func (c *Client) DeleteAll(ctx context.Context, kind projection.Kind) error {
	ctx, cancel := context.WithTimeout(ctx, c.options.Timeout)
	defer cancel()

	path := resolve(common.PathKind, kind, "")
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// Find performs a query of a specific kind, using a filter map.
func (c *Client) Find(ctx context.Context, kind projection.Kind, filters map[string]string, options projection.QueryOptions) ([]any, error) {
	ctx, cancel := context.WithTimeout(ctx, c.options.Timeout)
	defer cancel()

	if filters == nil {
		filters = make(map[string]string)
	}

	path := resolve(common.PathKindQuery, kind, "") + encodeQueryOptions(options)

	var resBody common.QueryRes
	if err := c.do(ctx, http.MethodPost, path, filters, &resBody); err != nil {
		return nil, err
	}

	return resBody.DecodeResults(kind)
}

// FindById finds a single entity of a specific kind.
func (c *Client) FindById(ctx context.Context, kind projection.Kind, id string) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, c.options.Timeout)
	defer cancel()

	path := resolve(common.PathKindId, kind, id)

	var resBody json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, nil, &resBody); err != nil {
		return nil, err
	}

	return common.DecodeEntity(kind, resBody)
}

func (c *Client) Shutdown() {
	c.httpClient.CloseIdleConnections()
}

func (c *Client) do(ctx context.Context, method string, path string, reqBody any, resBody any) error {
	var body *bytes.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to create JSON request body: %v", err)
		}
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url+path, body)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %v", method, err)
	}

	if reqBody != nil {
		req.Header.Set(common.HeaderContentType, common.ContentTypeJson)
	}

	if c.options.OnRequest != nil {
		if err := c.options.OnRequest(req); err != nil {
			return err
		}
	}

	req.Header.Add(common.HeaderAuthorization, c.authorization)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute %s %s: %v", method, c.url+path, err)
	}

	if c.options.OnResponse != nil {
		if err := c.options.OnResponse(res); err != nil {
			res.Body.Close()
			return err
		}
	}

	return decodeJSONResponseBody(res, resBody)
}
