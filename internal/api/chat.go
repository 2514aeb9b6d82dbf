package api

import (
	"context"
	"errors"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	apierrors "github.com/diogo/docchat/internal/errors"
	"github.com/diogo/docchat/internal/models"
)

// GJSON paths of the /chat response body
const (
	PathAnswer          = "answer"
	PathContext         = "context"
	PathContextFilename = "filename"
)

// chatRequest is the body of POST /chat
type chatRequest struct {
	Query string `json:"query"`
}

// Chat sends one question and returns the decoded answer.
// A 2xx body without a usable answer is reported as *errors.ParseError.
func (c *Client) Chat(ctx context.Context, query string) (models.Answer, error) {
	body, err := c.doJSON(ctx, "POST", models.EndpointChat, chatRequest{Query: query})
	if err != nil {
		return models.Answer{}, err
	}

	switch result := ParseChatResponse(body).(type) {
	case models.Answer:
		return result, nil
	case models.Malformed:
		c.logger.Warn("malformed chat response",
			zap.String("endpoint", models.EndpointChat),
			zap.String("reason", result.Reason),
			zap.Int("bytes", len(body)))
		return models.Answer{}, apierrors.NewParseError(result.Reason, models.EndpointChat)
	default:
		return models.Answer{}, apierrors.NewParseError("unknown result", models.EndpointChat)
	}
}

// Submit performs one chat turn and always returns a Message: an answer
// (possibly a refusal) on success, an error turn otherwise.
func (c *Client) Submit(ctx context.Context, query string) (msg models.Message) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("chat submission panicked", zap.Any("panic", r))
			msg = models.NewErrorMessage(models.ErrorPrefix + models.GenericFailureText)
		}
	}()

	answer, err := c.Chat(ctx, query)
	if err != nil {
		c.logger.Info("chat turn failed",
			zap.Int("status", apierrors.GetHTTPStatus(err)),
			zap.Error(err))
		return models.NewErrorMessage(DescribeFailure(err))
	}
	return answer.Message()
}

// DescribeFailure renders a chat failure as the text of an error turn
func DescribeFailure(err error) string {
	var apiErr *apierrors.APIError
	switch {
	case err == nil:
		return models.ErrorPrefix + models.GenericFailureText
	case errors.As(err, &apiErr):
		return models.ErrorPrefix + apiErr.Error()
	case apierrors.IsParseError(err):
		return models.ErrorPrefix + models.InvalidResponseText
	}

	text := err.Error()
	var netErr *apierrors.NetworkError
	if errors.As(err, &netErr) && netErr.Err != nil {
		text = netErr.Err.Error()
	}
	if text == "" {
		text = models.GenericFailureText
	}
	return models.ErrorPrefix + text
}

// ParseChatResponse decides the shape of a /chat body once. It never panics.
func ParseChatResponse(body []byte) models.ChatResult {
	if !gjson.ValidBytes(body) {
		return models.Malformed{Reason: "body is not valid JSON"}
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return models.Malformed{Reason: "body is not a JSON object"}
	}

	answer := root.Get(PathAnswer)
	if answer.Type != gjson.String || answer.Str == "" {
		return models.Malformed{Reason: "missing answer"}
	}

	var filenames []string
	if items := root.Get(PathContext); items.IsArray() {
		items.ForEach(func(_, item gjson.Result) bool {
			if !item.IsObject() {
				return true
			}
			if name := item.Get(PathContextFilename); name.Type == gjson.String {
				filenames = append(filenames, name.Str)
			}
			return true
		})
	}

	return models.Answer{Text: answer.Str, Filenames: filenames}
}
