package handler

import (
	"context"
	"fmt"

	"github.com/jimezsa/careermatch/internal/bedrock"
	"github.com/jimezsa/careermatch/internal/models"
	"github.com/jimezsa/careermatch/internal/resume"
)

type fakeTool struct {
	got    models.SearchRequest
	calls  int
	result models.SearchResult
	err    error
}

func (f *fakeTool) Run(_ context.Context, req models.SearchRequest) (models.SearchResult, error) {
	f.got = req
	f.calls++
	return f.result, f.err
}

type fakeAgent struct {
	ref     bedrock.AgentRef
	session string
	input   string
	reply   bedrock.Reply
	err     error
}

func (f *fakeAgent) Invoke(_ context.Context, ref bedrock.AgentRef, sessionID, input string) (bedrock.Reply, error) {
	f.ref, f.session, f.input = ref, sessionID, input
	return f.reply, f.err
}

type fakeResumes struct {
	uploaded string
	query    string
	upload   resume.Upload
	lookup   resume.Lookup
	err      error
}

func (f *fakeResumes) Upload(_ context.Context, fileName, content string) (resume.Upload, error) {
	f.uploaded = fileName + ":" + content
	return f.upload, f.err
}

func (f *fakeResumes) Lookup(_ context.Context, query string) (resume.Lookup, error) {
	f.query = query
	return f.lookup, f.err
}

func jobs(n int) []models.JobRecord {
	out := make([]models.JobRecord, n)
	for i := range out {
		out[i] = models.JobRecord{Title: fmt.Sprintf("Job %d", i+1), Company: "Acme"}
	}
	return out
}
