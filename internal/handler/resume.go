package handler

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

const (
	resumeActionGroup = "resumeStorage"
	resumeAPIPath     = "/store_resume"
	resumeHTTPMethod  = "POST"
)

// Resume serves the resume storage action group: uploads when a file is
// attached, knowledge base lookups when the input mentions a resume.
type Resume struct {
	Store  ResumeStore
	Logger zerolog.Logger
}

func (h *Resume) Handle(ctx context.Context, event ActionEvent) (APIResponse, error) {
	params := event.Params()
	inputText := strings.ToLower(event.InputText)
	fileContent := firstString(params, "file_content")

	switch {
	case fileContent != "":
		fileName := firstString(params, "file_name")
		h.Logger.Info().Str("file", fileName).Msg("processing resume upload")
		upload, err := h.Store.Upload(ctx, fileName, fileContent)
		if err != nil {
			h.Logger.Error().Err(err).Str("file", fileName).Msg("resume upload failed")
			return h.respond(500, errorBody(err.Error())), nil
		}
		return h.respond(200, map[string]any{
			"message":    "Resume uploaded and indexed successfully.",
			"characters": len([]rune(upload.Text)),
		}), nil

	case strings.Contains(inputText, "resume"):
		h.Logger.Info().Str("query", inputText).Msg("searching resumes")
		lookup, err := h.Store.Lookup(ctx, inputText)
		if err != nil {
			h.Logger.Error().Err(err).Msg("resume lookup failed")
			return h.respond(500, errorBody(err.Error())), nil
		}
		var results any = lookup.Results
		if len(lookup.Results) == 0 {
			results = map[string]string{"message": lookup.Message}
		}
		return h.respond(200, map[string]any{
			"message": "Resume lookup complete.",
			"results": results,
		}), nil

	default:
		h.Logger.Warn().Msg("no resume file or lookup request")
		return h.respond(400, errorBody("No resume provided or identifiable name found.")), nil
	}
}

func (h *Resume) respond(status int, body any) APIResponse {
	resp := apiResponse(resumeActionGroup, resumeAPIPath, resumeHTTPMethod, status, body)
	resp.MessageVersion = messageVersion
	return resp
}
