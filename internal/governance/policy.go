package governance

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Effect defines the result of a policy evaluation.
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// Request is a goal submitted through a chat gateway.
type Request struct {
	Goal   string
	ChatID string
}

// Result contains the outcome of a policy evaluation.
type Result struct {
	Effect Effect
	Reason string
}

// PolicyEngine decides whether a submitted goal may run.
type PolicyEngine interface {
	Evaluate(ctx context.Context, req Request) (Result, error)
}

// DefaultPolicyEngine admits goals by chat allowlist, length and pattern.
// MaxGoalLength counts runes; zero means unlimited.
type DefaultPolicyEngine struct {
	AllowedChats  map[string]bool
	DeniedRegex   []*regexp.Regexp
	MaxGoalLength int
}

func NewDefaultPolicyEngine() *DefaultPolicyEngine {
	return &DefaultPolicyEngine{
		AllowedChats: make(map[string]bool),
	}
}

// AllowChat restricts goals to the listed chats. With no allowed chats every
// chat is accepted.
func (e *DefaultPolicyEngine) AllowChat(chatID string) {
	e.AllowedChats[chatID] = true
}

// DenyGoals rejects every goal matching pattern.
func (e *DefaultPolicyEngine) DenyGoals(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("deny pattern %q: %w", pattern, err)
	}
	e.DeniedRegex = append(e.DeniedRegex, re)
	return nil
}

// Evaluate runs the checks in order (chat, empty goal, length, patterns);
// the first one that objects denies the request.
func (e *DefaultPolicyEngine) Evaluate(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	checks := []func(Request) string{
		e.checkChat,
		checkEmpty,
		e.checkLength,
		e.checkPatterns,
	}
	for _, check := range checks {
		if reason := check(req); reason != "" {
			return Result{Effect: EffectDeny, Reason: reason}, nil
		}
	}
	return Result{Effect: EffectAllow, Reason: "Approved by default policy"}, nil
}

func (e *DefaultPolicyEngine) checkChat(req Request) string {
	if len(e.AllowedChats) > 0 && !e.AllowedChats[req.ChatID] {
		return fmt.Sprintf("Chat '%s' is not allowed to submit goals", req.ChatID)
	}
	return ""
}

func checkEmpty(req Request) string {
	if strings.TrimSpace(req.Goal) == "" {
		return "Goal is empty"
	}
	return ""
}

func (e *DefaultPolicyEngine) checkLength(req Request) string {
	if e.MaxGoalLength > 0 && utf8.RuneCountInString(req.Goal) > e.MaxGoalLength {
		return fmt.Sprintf("Goal exceeds %d characters", e.MaxGoalLength)
	}
	return ""
}

func (e *DefaultPolicyEngine) checkPatterns(req Request) string {
	for _, re := range e.DeniedRegex {
		if re.MatchString(req.Goal) {
			return fmt.Sprintf("Goal matches restricted pattern: %s", re.String())
		}
	}
	return ""
}
