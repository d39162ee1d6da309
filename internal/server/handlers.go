package server

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/powlang/powlang/pkg/diagnostics"
	"github.com/powlang/powlang/pkg/evaluator"
	"github.com/powlang/powlang/pkg/help"
	"github.com/powlang/powlang/pkg/lexer"
	"github.com/powlang/powlang/pkg/runtime"
)

// SourceRequest is the body of the check and tokens endpoints.
type SourceRequest struct {
	Code string `json:"code"`
}

// CompileRequest is the body of POST /api/compiler.
type CompileRequest struct {
	SourceRequest
	EnableLogs bool `json:"enableLogs"`
}

// TimedResponse is returned with 200 when the caller asked for logs.
type TimedResponse struct {
	Output string               `json:"output"`
	Time   string               `json:"time"`
	Logs   []evaluator.LogEntry `json:"logs"`
}

// OutputResponse is the lean 202 shape returned without logs.
type OutputResponse struct {
	Output string `json:"output"`
}

// ErrorResponse carries a one-line error and, for compile failures, the
// diagnostic behind it.
type ErrorResponse struct {
	Error      string                  `json:"error"`
	Diagnostic *diagnostics.Diagnostic `json:"diagnostic,omitempty"`
}

// CheckResponse lists static diagnostics; an empty list means clean.
type CheckResponse struct {
	Diagnostics []diagnostics.Diagnostic `json:"diagnostics"`
}

// TokenInfo is one highlighted token.
type TokenInfo struct {
	Category lexer.Kind `json:"category"`
	Lexeme   string     `json:"lexeme"`
	Line     int        `json:"line"`
	Col      int        `json:"col"`
	Offset   int        `json:"offset"`
}

// TokensResponse is the body returned by POST /api/tokens.
type TokensResponse struct {
	Tokens []TokenInfo `json:"tokens"`
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// readSource decodes the request body into dst and applies the size limits
// shared by every source-carrying endpoint. The returned code does not alias
// the request buffer.
func (s *Server) readSource(c *fiber.Ctx, dst any, req *SourceRequest) (string, error) {
	if err := sonic.Unmarshal(c.Body(), dst); err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	src := req.Code
	if strings.TrimSpace(src) == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "code is required")
	}
	if len(src) > s.cfg.Compiler.MaxSourceBytes {
		return "", fiber.NewError(fiber.StatusBadRequest,
			fmt.Sprintf("code exceeds %d bytes", s.cfg.Compiler.MaxSourceBytes))
	}
	return strings.Clone(src), nil
}

type outcome struct {
	res *runtime.Result
	err error
}

func (s *Server) compile(c *fiber.Ctx) error {
	var req CompileRequest
	code, err := s.readSource(c, &req, &req.SourceRequest)
	if err != nil {
		return err
	}

	// Canceling ctx stops the run at its next loop iteration.
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Compiler.Timeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		res, err := s.rt.RunContext(ctx, code, req.EnableLogs)
		done <- outcome{res: res, err: err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-ctx.Done():
		return s.timedOut(c)
	}

	if out.err != nil {
		var cerr *runtime.CompileError
		if !errors.As(out.err, &cerr) {
			return out.err
		}
		if cerr.Diag.Code == diagnostics.ECanceled {
			return s.timedOut(c)
		}
		diag := cerr.Diag
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: cerr.Error(), Diagnostic: &diag})
	}

	if !req.EnableLogs {
		return c.Status(fiber.StatusAccepted).JSON(OutputResponse{Output: out.res.Output})
	}
	logs := out.res.Logs
	if logs == nil {
		logs = []evaluator.LogEntry{}
	}
	return c.JSON(TimedResponse{
		Output: out.res.Output,
		Time:   out.res.Elapsed.String(),
		Logs:   logs,
	})
}

func (s *Server) timedOut(c *fiber.Ctx) error {
	s.log.Warn("compile timed out",
		zap.String("request_id", c.GetRespHeader(fiber.HeaderXRequestID)),
		zap.Duration("timeout", s.cfg.Compiler.Timeout),
	)
	return c.Status(fiber.StatusGatewayTimeout).JSON(ErrorResponse{
		Error: fmt.Sprintf("compilation timed out after %s", s.cfg.Compiler.Timeout),
	})
}

func (s *Server) check(c *fiber.Ctx) error {
	var req SourceRequest
	code, err := s.readSource(c, &req, &req)
	if err != nil {
		return err
	}
	diags := s.rt.Check(code)
	if diags == nil {
		diags = []diagnostics.Diagnostic{}
	}
	return c.JSON(CheckResponse{Diagnostics: diags})
}

func (s *Server) tokens(c *fiber.Ctx) error {
	var req SourceRequest
	code, err := s.readSource(c, &req, &req)
	if err != nil {
		return err
	}
	toks, err := lexer.Scan(code, "", lexer.ScanOptions{KeepComments: true, Recover: true})
	if err != nil {
		return err
	}

	infos := make([]TokenInfo, 0, len(toks))
	for _, tok := range toks {
		if tok.Type == lexer.TokEOF {
			continue
		}
		infos = append(infos, TokenInfo{
			Category: tok.Category(),
			Lexeme:   lexer.Lexeme(code, tok),
			Line:     tok.Span.StartLine,
			Col:      tok.Span.StartCol,
			Offset:   tok.Span.Offset,
		})
	}
	return c.JSON(TokensResponse{Tokens: infos})
}

func (s *Server) keywords(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"keywords": help.Keywords})
}

func (s *Server) keyword(c *fiber.Ctx) error {
	entry, ok := help.LookupKeyword(c.Params("name"))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("unknown keyword %q", c.Params("name")))
	}
	return c.JSON(entry)
}
