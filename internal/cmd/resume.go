package cmd

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jimezsa/careermatch/internal/resume"
)

type ResumeCmd struct {
	Extract ResumeExtractCmd `cmd:"" help:"Print the text of a PDF resume."`
	Upload  ResumeUploadCmd  `cmd:"" help:"Store a PDF resume and index it in the knowledge base."`
	Lookup  ResumeLookupCmd  `cmd:"" help:"Search indexed resumes."`
}

type ResumeExtractCmd struct {
	File string `arg:"" type:"existingfile" help:"PDF file."`
}

type ResumeUploadCmd struct {
	File string `arg:"" type:"existingfile" help:"PDF file."`
}

type ResumeLookupCmd struct {
	Query string `arg:"" help:"Search text."`
}

func (r *ResumeExtractCmd) Run(ctx *Context) error {
	data, err := os.ReadFile(r.File)
	if err != nil {
		return err
	}
	text := resume.ExtractText(data)
	if resume.IsFailure(text) {
		return errors.New(text)
	}
	if ctx.JSONOutput {
		return writeIndentedJSON(ctx, map[string]any{
			"file_name":   filepath.Base(r.File),
			"resume_text": text,
			"characters":  len(text),
		})
	}
	_, err = fmt.Fprintln(ctx.Out, text)
	return err
}

func (r *ResumeUploadCmd) Run(ctx *Context) error {
	data, err := os.ReadFile(r.File)
	if err != nil {
		return err
	}
	runCtx := context.Background()
	svc, err := newServices(runCtx, ctx)
	if err != nil {
		return err
	}

	upload, err := svc.analyzer().Upload(runCtx, filepath.Base(r.File), base64.StdEncoding.EncodeToString(data))
	if err != nil {
		return err
	}
	if ctx.JSONOutput {
		return writeIndentedJSON(ctx, upload)
	}
	ctx.UI.Successf("Stored %s (%d characters)", upload.Key, len(upload.Text))
	return nil
}

func (r *ResumeLookupCmd) Run(ctx *Context) error {
	runCtx := context.Background()
	svc, err := newServices(runCtx, ctx)
	if err != nil {
		return err
	}

	lookup, err := svc.analyzer().Lookup(runCtx, r.Query)
	if err != nil {
		return err
	}
	if ctx.JSONOutput {
		return writeIndentedJSON(ctx, lookup)
	}
	if lookup.Message != "" {
		ctx.UI.Infof("%s", lookup.Message)
		return nil
	}
	for _, doc := range lookup.Results {
		fmt.Fprintf(ctx.Out, "%s\t%.3f\n%s\n\n", doc.DocumentID, doc.Score, doc.Content)
	}
	return nil
}
