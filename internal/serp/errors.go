package serp

import "fmt"

// ProviderError reports a response in which the provider itself signalled
// failure. Detail is the raw error payload.
type ProviderError struct {
	Detail Value
}

func (e *ProviderError) Error() string {
	if text, ok := e.Detail.Str(); ok {
		return fmt.Sprintf("provider returned an error: %s", text)
	}
	data, _ := e.Detail.MarshalJSON()
	return fmt.Sprintf("provider returned an error: %s", data)
}

// HTTPError is returned when the provider answers with an error status and
// a body that is not JSON.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("provider http %d", e.StatusCode)
	}
	return fmt.Sprintf("provider http %d: %s", e.StatusCode, e.Body)
}
