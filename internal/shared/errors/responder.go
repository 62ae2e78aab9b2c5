package errors

import (
	"errors"

	"github.com/gin-gonic/gin"
)

// ContentTypeProblemJSON is the media type of problem documents.
const ContentTypeProblemJSON = "application/problem+json"

// ErrorMapper turns an error into a problem when it recognises it.
type ErrorMapper func(err error) (ProblemDetail, bool)

// Responder writes problem documents, consulting mappers before falling back
// to a 500.
type Responder struct {
	baseURI string
	mappers []ErrorMapper
}

// NewResponder builds a responder. baseURI prefixes relative problem types.
func NewResponder(baseURI string, mappers ...ErrorMapper) *Responder {
	return &Responder{baseURI: baseURI, mappers: mappers}
}

// Respond writes problem and aborts the gin chain.
func (r *Responder) Respond(c *gin.Context, problem ProblemDetail) {
	if r.baseURI != "" && len(problem.Type) > 0 && problem.Type[0] == '/' {
		problem.Type = r.baseURI + problem.Type
	}
	if problem.Instance == "" {
		problem.Instance = c.Request.URL.Path
	}
	c.Header("Content-Type", ContentTypeProblemJSON)
	c.AbortWithStatusJSON(problem.Status, problem)
}

// RespondError maps err and writes the result.
func (r *Responder) RespondError(c *gin.Context, err error) {
	r.Respond(c, r.Problem(err))
}

// Problem resolves err without writing anything.
func (r *Responder) Problem(err error) ProblemDetail {
	var problem ProblemDetail
	if errors.As(err, &problem) {
		return problem
	}
	for _, mapper := range r.mappers {
		if p, ok := mapper(err); ok {
			return p
		}
	}
	return ErrInternal.WithDetail(err.Error())
}
