// Package handler holds the Lambda entry points: the search function, the
// agent action groups and the frontend chat endpoint.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jimezsa/careermatch/internal/bedrock"
	"github.com/jimezsa/careermatch/internal/models"
	"github.com/jimezsa/careermatch/internal/resume"
)

// SearchTool runs job searches. *jobsearch.Tool satisfies it.
type SearchTool interface {
	Run(ctx context.Context, req models.SearchRequest) (models.SearchResult, error)
}

// Agent runs one hosted agent turn. *bedrock.AgentInvoker satisfies it.
type Agent interface {
	Invoke(ctx context.Context, ref bedrock.AgentRef, sessionID, input string) (bedrock.Reply, error)
}

// ResumeStore uploads and searches resumes. *resume.Analyzer satisfies it.
type ResumeStore interface {
	Upload(ctx context.Context, fileName, content string) (resume.Upload, error)
	Lookup(ctx context.Context, query string) (resume.Lookup, error)
}

// ActionEvent is the request an agent sends to an action group Lambda.
// Direct invocations put query fields at the top level, so those are
// accepted too.
type ActionEvent struct {
	MessageVersion     string          `json:"messageVersion,omitempty"`
	ActionGroup        string          `json:"actionGroup,omitempty"`
	APIPath            string          `json:"apiPath,omitempty"`
	HTTPMethod         string          `json:"httpMethod,omitempty"`
	Function           string          `json:"function,omitempty"`
	SessionID          string          `json:"sessionId,omitempty"`
	InputText          string          `json:"inputText,omitempty"`
	Query              string          `json:"query,omitempty"`
	Location           string          `json:"location,omitempty"`
	Goal               string          `json:"goal,omitempty"`
	Body               json.RawMessage `json:"body,omitempty"`
	Parameters         json.RawMessage `json:"parameters,omitempty"`
	FunctionParameters json.RawMessage `json:"functionParameters,omitempty"`
	RequestBody        json.RawMessage `json:"requestBody,omitempty"`
}

type parameter struct {
	Name  string `json:"name"`
	Type  string `json:"type,omitempty"`
	Value any    `json:"value"`
}

// Params flattens the event parameters into a map. Both the agent list
// form [{name, value}] and a plain object are accepted; parameters win
// over functionParameters, which win over requestBody properties.
func (e ActionEvent) Params() map[string]any {
	for _, raw := range []json.RawMessage{e.Parameters, e.FunctionParameters} {
		if params := decodeParams(raw); len(params) > 0 {
			return params
		}
	}
	return requestBodyParams(e.RequestBody)
}

// FirstParamValue returns the value of the first listed parameter.
func (e ActionEvent) FirstParamValue() string {
	var list []parameter
	if err := json.Unmarshal(e.Parameters, &list); err != nil || len(list) == 0 {
		return ""
	}
	return stringValue(list[0].Value)
}

// BodyMap decodes the body field, which may be an object or a JSON string.
func (e ActionEvent) BodyMap() map[string]any {
	return decodeObject(e.Body)
}

func decodeParams(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var list []parameter
	if err := json.Unmarshal(raw, &list); err == nil {
		params := make(map[string]any, len(list))
		for _, p := range list {
			if p.Name != "" {
				params[p.Name] = p.Value
			}
		}
		return params
	}
	var params map[string]any
	if err := json.Unmarshal(raw, &params); err == nil {
		return params
	}
	return nil
}

func requestBodyParams(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	var body struct {
		Content map[string]struct {
			Properties []parameter `json:"properties"`
		} `json:"content"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && len(body.Content) > 0 {
		params := map[string]any{}
		for _, media := range body.Content {
			for _, p := range media.Properties {
				if p.Name != "" {
					params[p.Name] = p.Value
				}
			}
		}
		return params
	}
	if params := decodeParams(raw); params != nil {
		return params
	}
	return map[string]any{}
}

// decodeObject accepts an object or a string holding an object. Anything
// else yields an empty map.
func decodeObject(raw json.RawMessage) map[string]any {
	out := map[string]any{}
	if len(raw) == 0 {
		return out
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		raw = json.RawMessage(text)
	}
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return map[string]any{}
	}
	return out
}

// stringValue renders a decoded JSON value as plain text.
func stringValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	}
}

// firstString returns the first non-empty string value among keys.
func firstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := strings.TrimSpace(stringValue(m[key])); s != "" {
			return s
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
