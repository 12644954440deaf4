package steps

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/backofhouse-backend/internal/clients/gcp"
	"github.com/yungbote/backofhouse-backend/internal/data/repos"
	rtypes "github.com/yungbote/backofhouse-backend/internal/domain/restaurant"
	"github.com/yungbote/backofhouse-backend/internal/pkg/dbctx"
	"github.com/yungbote/backofhouse-backend/internal/pkg/logger"
	"github.com/yungbote/backofhouse-backend/internal/pkg/textextract"
)

const (
	PermanentFileCharLimit = 50000
	TemporaryFileCharLimit = 25000
	TemporaryFileLimit     = 5

	maxDownloadBytes    = 32 << 20
	documentConcurrency = 4
)

// ExtractFunc turns downloaded bytes into text; textextract.Extract in production.
type ExtractFunc func(name, mimeType string, data []byte) (textextract.Result, error)

type documentAssembler struct {
	log     *logger.Logger
	files   repos.FileRepo
	bucket  gcp.BucketService
	extract ExtractFunc
}

func NewDocumentAssembler(log *logger.Logger, files repos.FileRepo, bucket gcp.BucketService, extract ExtractFunc) Assembler {
	if extract == nil {
		extract = textextract.Extract
	}
	return &documentAssembler{
		log:     log.With("assembler", AssemblerDocuments),
		files:   files,
		bucket:  bucket,
		extract: extract,
	}
}

func (a *documentAssembler) Name() string { return AssemblerDocuments }

type renderedDoc struct {
	label string
	name  string
	text  string
	ok    bool
}

func (a *documentAssembler) Assemble(ctx context.Context, tc TurnContext) (Block, error) {
	if a.bucket == nil {
		return Block{Status: "disabled"}, nil
	}
	dbc := dbctx.New(ctx)
	permanent, err := a.files.ListPermanent(dbc, tc.RestaurantID)
	if err != nil {
		return Block{}, fmt.Errorf("list permanent files: %w", err)
	}
	var temporary []*rtypes.File
	if tc.ConversationID != uuid.Nil {
		temporary, err = a.files.ListTemporary(dbc, tc.RestaurantID, tc.ConversationID, TemporaryFileLimit)
		if err != nil {
			return Block{}, fmt.Errorf("list temporary files: %w", err)
		}
		if len(temporary) > TemporaryFileLimit {
			temporary = temporary[:TemporaryFileLimit]
		}
	}

	type job struct {
		file  *rtypes.File
		label string
		limit int
	}
	jobs := make([]job, 0, len(permanent)+len(temporary))
	for _, f := range permanent {
		jobs = append(jobs, job{f, "KNOWLEDGE BASE", PermanentFileCharLimit})
	}
	for _, f := range temporary {
		jobs = append(jobs, job{f, "CONVERSATION FILE", TemporaryFileCharLimit})
	}
	if len(jobs) == 0 {
		return Block{}, nil
	}

	docs := make([]renderedDoc, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(documentConcurrency)
	for i, j := range jobs {
		if j.file == nil {
			continue
		}
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					a.log.Error("Document read panicked", "file_id", j.file.ID, "file_name", j.file.FileName, "panic", r)
				}
			}()
			text, err := a.readFile(gctx, j.file)
			if err != nil {
				a.log.Warn("Skipping document",
					"file_id", j.file.ID,
					"file_name", j.file.FileName,
					"error", err,
				)
				return nil
			}
			docs[i] = renderedDoc{label: j.label, name: j.file.FileName, text: TruncateRunes(text, j.limit), ok: true}
			return nil
		})
	}
	_ = g.Wait()
	return Block{Text: renderDocuments(docs)}, nil
}

func (a *documentAssembler) readFile(ctx context.Context, f *rtypes.File) (string, error) {
	rc, err := a.bucket.DownloadFile(ctx, f.StoragePath)
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, maxDownloadBytes))
	if err != nil {
		return "", fmt.Errorf("read: %w", err)
	}
	res, err := a.extract(f.FileName, f.MimeType, data)
	if err != nil {
		return "", fmt.Errorf("extract: %w", err)
	}
	return res.Text, nil
}

// TruncateRunes caps s at limit characters and marks the cut.
func TruncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == limit {
			return s[:i] + fmt.Sprintf("\n\n[... truncated after %d characters ...]", limit)
		}
		count++
	}
	return s
}

func renderDocuments(docs []renderedDoc) string {
	var parts []string
	for _, d := range docs {
		if !d.ok || strings.TrimSpace(d.text) == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("=== %s: %s ===\n%s", d.label, d.name, strings.TrimSpace(d.text)))
	}
	if len(parts) == 0 {
		return ""
	}
	header := "UPLOADED DOCUMENTS:\n" +
		"KNOWLEDGE BASE files are the restaurant's source of truth and apply to every conversation. " +
		"CONVERSATION FILES were shared in this conversation only. When they disagree, trust the knowledge base.\n\n"
	return header + strings.Join(parts, "\n\n")
}
