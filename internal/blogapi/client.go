// Package blogapi is the HTTP client for the blogs REST API.
package blogapi

import (
	"bufio"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/debemdeboas/draftdesk/internal/model"
	"github.com/debemdeboas/draftdesk/internal/routes"
	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// ErrMissingID is returned when a save or publish response carries no post id.
var ErrMissingID = errors.New("response has no post id")

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return http.StatusText(e.StatusCode)
	}
	return e.Message
}

type apiError struct {
	Error string `json:"error"`
}

type Client struct {
	http *resty.Client
}

// New returns a client for the API rooted at baseURL (e.g.
// http://localhost:5000/api). A zero timeout never times out.
func New(baseURL string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)

	return &Client{http: c}
}

func checkResponse(res *resty.Response, op string) error {
	if !res.IsError() {
		return nil
	}

	statusErr := &StatusError{StatusCode: res.StatusCode()}
	if e, ok := res.Error().(*apiError); ok && e != nil {
		statusErr.Message = e.Error
	}
	return errors.Wrapf(statusErr, "%s: status %d", op, res.StatusCode())
}

// List fetches every post.
func (c *Client) List(ctx context.Context) ([]model.Post, error) {
	posts := make([]model.Post, 0)

	res, err := c.http.R().
		SetContext(ctx).
		SetResult(&posts).
		SetError(&apiError{}).
		Get(routes.Blogs)
	if err != nil {
		return nil, errors.Wrap(err, "listing blogs")
	}
	if err := checkResponse(res, "listing blogs"); err != nil {
		return nil, err
	}

	return posts, nil
}

func (c *Client) SaveDraft(ctx context.Context, in model.PostInput) (*model.Post, error) {
	return c.send(ctx, routes.BlogsSaveDraft, in, "saving draft")
}

func (c *Client) Publish(ctx context.Context, in model.PostInput) (*model.Post, error) {
	return c.send(ctx, routes.BlogsPublish, in, "publishing")
}

func (c *Client) send(ctx context.Context, path string, in model.PostInput, op string) (*model.Post, error) {
	if in.Tags == nil {
		in.Tags = []string{}
	}

	var post model.Post
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(in).
		SetResult(&post).
		SetError(&apiError{}).
		Post(path)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	if err := checkResponse(res, op); err != nil {
		return nil, err
	}

	if post.ID == "" {
		return nil, errors.Wrap(ErrMissingID, op)
	}
	return &post, nil
}

func (c *Client) Delete(ctx context.Context, id model.PostID) error {
	res, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", string(id)).
		SetError(&apiError{}).
		Delete(routes.BlogByID)
	if err != nil {
		return errors.Wrapf(err, "deleting %s", id)
	}
	return checkResponse(res, "deleting "+string(id))
}

// Watch follows the server's change feed and calls onChange with the id of
// every post that was saved, published or deleted. It returns when ctx is
// cancelled or the stream ends.
func (c *Client) Watch(ctx context.Context, onChange func(model.PostID)) error {
	res, err := c.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetHeader("Accept", "text/event-stream").
		Get(routes.BlogsEvents)
	if err != nil {
		return errors.Wrap(err, "opening event stream")
	}
	body := res.RawBody()
	defer body.Close()

	if res.IsError() {
		return errors.Wrapf(&StatusError{StatusCode: res.StatusCode()}, "opening event stream: status %d", res.StatusCode())
	}

	var event string
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			event = ""
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if event == routes.EventChanged {
				onChange(model.PostID(strings.TrimSpace(strings.TrimPrefix(line, "data:"))))
			}
		}
	}

	if ctx.Err() != nil {
		return nil
	}
	return errors.Wrap(scanner.Err(), "reading event stream")
}
