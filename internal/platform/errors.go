package platform

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ashureev/repochat/internal/domain"
	"github.com/google/go-github/v66/github"
)

var errInvalidRepoName = errors.New("invalid repository name")

// failure describes how a remote error should read for one operation.
// Empty labels disable the corresponding translation.
type failure struct {
	action   string // e.g. "creating repository"
	notFound string // e.g. "Repository 'me/demo'"
	conflict string // e.g. "Repository with name 'demo'"
}

// fail translates a GitHub error into a user-facing Result. Errors that did
// not come from the API (transport, context) are returned as errors.
func (c *Client) fail(err error, f failure) (domain.Result, error) {
	if errors.Is(err, errInvalidRepoName) {
		return domain.Fail(domain.StatusError, "Error: %v", err), nil
	}

	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return domain.Fail(domain.StatusRateLimited, "Error %s: GitHub rate limit exceeded, please try again later.", f.action), nil
	}

	status := statusOf(err)
	switch {
	case status == http.StatusUnauthorized:
		return domain.Result{}, fmt.Errorf("%w: %s", ErrAuthentication, apiMessage(err))
	case status == http.StatusNotFound && f.notFound != "":
		return domain.Fail(domain.StatusNotFound, "Error: %s not found.", f.notFound), nil
	case status == http.StatusUnprocessableEntity && f.conflict != "":
		return domain.Fail(domain.StatusConflict, "Error: %s might already exist.", f.conflict), nil
	case status == http.StatusForbidden:
		return domain.Fail(domain.StatusForbidden, "Error %s: permission denied (%s).", f.action, apiMessage(err)), nil
	case status != 0:
		return domain.Fail(domain.StatusError, "Error %s: %s", f.action, apiMessage(err)), nil
	default:
		return domain.Result{}, fmt.Errorf("%s: %w", f.action, err)
	}
}

func statusOf(err error) int {
	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		return errResp.Response.StatusCode
	}
	return 0
}

func apiMessage(err error) string {
	var errResp *github.ErrorResponse
	if !errors.As(err, &errResp) || errResp.Response == nil {
		return err.Error()
	}
	msg := errResp.Message
	if msg == "" {
		msg = http.StatusText(errResp.Response.StatusCode)
	}
	for _, e := range errResp.Errors {
		if e.Message != "" {
			msg += ": " + e.Message
			break
		}
	}
	return fmt.Sprintf("%d %s", errResp.Response.StatusCode, msg)
}
