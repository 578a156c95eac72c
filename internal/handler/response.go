package handler

import (
	"bytes"
	"encoding/json"
)

const (
	jsonContentType = "application/json"
	messageVersion  = "1.0"
)

// APIResponse answers an OpenAPI-style action group call.
type APIResponse struct {
	MessageVersion string      `json:"messageVersion,omitempty"`
	Response       APIEnvelope `json:"response"`
}

type APIEnvelope struct {
	ActionGroup    string                  `json:"actionGroup"`
	APIPath        string                  `json:"apiPath"`
	HTTPMethod     string                  `json:"httpMethod"`
	HTTPStatusCode int                     `json:"httpStatusCode"`
	ResponseBody   map[string]ResponseBody `json:"responseBody"`
}

type ResponseBody struct {
	Body any `json:"body"`
}

// FunctionResponse answers a function-style action group call.
type FunctionResponse struct {
	Response FunctionEnvelope `json:"response"`
}

type FunctionEnvelope struct {
	ActionGroup      string         `json:"actionGroup"`
	Function         string         `json:"function"`
	FunctionResponse FunctionResult `json:"functionResponse"`
}

type FunctionResult struct {
	ResponseBody map[string]ResponseBody `json:"responseBody"`
}

func apiResponse(group, path, method string, status int, body any) APIResponse {
	return APIResponse{Response: APIEnvelope{
		ActionGroup:    group,
		APIPath:        path,
		HTTPMethod:     method,
		HTTPStatusCode: status,
		ResponseBody:   map[string]ResponseBody{jsonContentType: {Body: body}},
	}}
}

func textResponse(group, function, text string) FunctionResponse {
	return FunctionResponse{Response: FunctionEnvelope{
		ActionGroup: group,
		Function:    function,
		FunctionResponse: FunctionResult{
			ResponseBody: map[string]ResponseBody{"TEXT": {Body: text}},
		},
	}}
}

// marshal encodes v without HTML escaping so links and non-ASCII text
// survive unchanged.
func marshal(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return `{"error":"response encoding failed"}`
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}
