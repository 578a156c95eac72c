package resume

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagent"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/document"
	kbtypes "github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	DefaultBucket          = "jobmarket-agent-knowledge"
	DefaultKnowledgeBaseID = "LZYESBWUB7"
	DefaultDataSourceID    = "DS67890XYZ"

	keyPrefix       = "resumes/"
	lookupResults   = 3
	noResumeMessage = "No resumes found in the knowledge base."
)

var ErrUnsupportedFile = errors.New("unsupported file type: only PDF supported")

type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type IngestionAPI interface {
	StartIngestionJob(ctx context.Context, params *bedrockagent.StartIngestionJobInput, optFns ...func(*bedrockagent.Options)) (*bedrockagent.StartIngestionJobOutput, error)
}

type RetrieveAPI interface {
	Retrieve(ctx context.Context, params *bedrockagentruntime.RetrieveInput, optFns ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.RetrieveOutput, error)
}

// Settings locates the bucket and knowledge base holding resumes.
type Settings struct {
	Bucket          string `json:"bucket"`
	KnowledgeBaseID string `json:"knowledge_base_id"`
	DataSourceID    string `json:"data_source_id"`
}

func (s Settings) withDefaults() Settings {
	if s.Bucket == "" {
		s.Bucket = DefaultBucket
	}
	if s.KnowledgeBaseID == "" {
		s.KnowledgeBaseID = DefaultKnowledgeBaseID
	}
	if s.DataSourceID == "" {
		s.DataSourceID = DefaultDataSourceID
	}
	return s
}

// Analyzer stores resumes in the knowledge base bucket and searches them.
type Analyzer struct {
	storage   S3API
	ingestion IngestionAPI
	retrieval RetrieveAPI
	settings  Settings
	newID     func() string
	logger    zerolog.Logger
}

func NewAnalyzer(storage S3API, ingestion IngestionAPI, retrieval RetrieveAPI, settings Settings, logger zerolog.Logger) *Analyzer {
	return &Analyzer{
		storage:   storage,
		ingestion: ingestion,
		retrieval: retrieval,
		settings:  settings.withDefaults(),
		newID:     uuid.NewString,
		logger:    logger,
	}
}

// Upload is the outcome of storing one resume.
type Upload struct {
	Key  string `json:"key"`
	Text string `json:"resume_text"`
}

type record struct {
	FileName   string `json:"file_name"`
	ResumeText string `json:"resume_text"`
}

// Upload decodes a base64 PDF, stores its text as a JSON record and starts
// ingestion of the resume data source.
func (a *Analyzer) Upload(ctx context.Context, fileName, content string) (Upload, error) {
	if !strings.EqualFold(path.Ext(fileName), ".pdf") {
		return Upload{}, fmt.Errorf("%w: %q", ErrUnsupportedFile, fileName)
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(content))
	if err != nil {
		return Upload{}, fmt.Errorf("decode file content: %w", err)
	}
	text := ExtractText(data)

	body, err := json.MarshalIndent(record{FileName: fileName, ResumeText: text}, "", "  ")
	if err != nil {
		return Upload{}, err
	}
	key := keyPrefix + a.newID() + ".json"
	_, err = a.storage.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.settings.Bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(string(body)),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return Upload{}, fmt.Errorf("upload s3://%s/%s: %w", a.settings.Bucket, key, err)
	}
	a.logger.Info().Str("bucket", a.settings.Bucket).Str("key", key).Msg("resume uploaded")

	job, err := a.ingestion.StartIngestionJob(ctx, &bedrockagent.StartIngestionJobInput{
		KnowledgeBaseId: aws.String(a.settings.KnowledgeBaseID),
		DataSourceId:    aws.String(a.settings.DataSourceID),
		Description:     aws.String("Ingest resume " + key),
	})
	if err != nil {
		return Upload{}, fmt.Errorf("start ingestion: %w", err)
	}
	if job.IngestionJob != nil {
		a.logger.Info().Str("job", aws.ToString(job.IngestionJob.IngestionJobId)).Msg("resume ingestion started")
	}
	return Upload{Key: key, Text: text}, nil
}

// Document is one knowledge base hit.
type Document struct {
	DocumentID string  `json:"documentId"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
}

// Lookup is the outcome of a resume search. Message is set when nothing
// matched.
type Lookup struct {
	Results []Document `json:"results,omitempty"`
	Message string     `json:"message,omitempty"`
}

// Lookup searches the resume data source of the knowledge base.
func (a *Analyzer) Lookup(ctx context.Context, query string) (Lookup, error) {
	out, err := a.retrieval.Retrieve(ctx, &bedrockagentruntime.RetrieveInput{
		KnowledgeBaseId: aws.String(a.settings.KnowledgeBaseID),
		RetrievalQuery:  &kbtypes.KnowledgeBaseQuery{Text: aws.String(query)},
		RetrievalConfiguration: &kbtypes.KnowledgeBaseRetrievalConfiguration{
			VectorSearchConfiguration: &kbtypes.KnowledgeBaseVectorSearchConfiguration{
				NumberOfResults: aws.Int32(lookupResults),
				Filter: &kbtypes.RetrievalFilterMemberEquals{
					Value: kbtypes.FilterAttribute{
						Key:   aws.String("dataSourceId"),
						Value: document.NewLazyDocument(a.settings.DataSourceID),
					},
				},
			},
		},
	})
	if err != nil {
		return Lookup{}, fmt.Errorf("retrieve from knowledge base %s: %w", a.settings.KnowledgeBaseID, err)
	}

	docs := make([]Document, 0, len(out.RetrievalResults))
	for _, result := range out.RetrievalResults {
		doc := Document{Score: aws.ToFloat64(result.Score)}
		if result.Content != nil {
			doc.Content = aws.ToString(result.Content.Text)
		}
		if result.Location != nil && result.Location.S3Location != nil {
			doc.DocumentID = aws.ToString(result.Location.S3Location.Uri)
		}
		docs = append(docs, doc)
	}
	a.logger.Debug().Str("query", query).Int("results", len(docs)).Msg("resume lookup")
	if len(docs) == 0 {
		return Lookup{Message: noResumeMessage}, nil
	}
	return Lookup{Results: docs}, nil
}
