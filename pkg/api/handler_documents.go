package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	echo "github.com/labstack/echo/v5"

	entdocument "github.com/docupilot-ai/docupilot/ent/document"
	"github.com/docupilot-ai/docupilot/pkg/ingest"
	"github.com/docupilot-ai/docupilot/pkg/models"
	"github.com/docupilot-ai/docupilot/pkg/services"
)

const maxUploadBytes = 20 << 20

// uploadHandler serves POST /api/documents/upload (multipart "file").
func (s *Server) uploadHandler(c *echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file field is required")
	}
	if fileHeader.Size > maxUploadBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge,
			fmt.Sprintf("file exceeds maximum size of %d bytes", maxUploadBytes))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read file")
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read file")
	}
	if len(data) > maxUploadBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge,
			fmt.Sprintf("file exceeds maximum size of %d bytes", maxUploadBytes))
	}

	extracted, err := ingest.ExtractFile(fileHeader.Filename, data)
	if err != nil {
		return mapIngestError(err)
	}

	return s.createDocument(c, extracted, data, fileHeader.Filename, "")
}

// urlIngestHandler serves POST /api/documents/url.
func (s *Server) urlIngestHandler(c *echo.Context) error {
	var req struct {
		URL string `json:"url"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.URL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "url field is required")
	}

	extracted, err := ingest.FetchURL(c.Request().Context(), req.URL)
	if err != nil {
		return mapIngestError(err)
	}

	return s.createDocument(c, extracted, nil, "", req.URL)
}

// createDocument runs the shared ingest tail: chunk, store the original
// blob, persist document and chunks, mark ready.
func (s *Server) createDocument(c *echo.Context, extracted ingest.Extracted, original []byte, filename, sourceURL string) error {
	ctx := c.Request().Context()
	userID := currentUserID(c)

	chunks, err := s.chunker.Split(extracted.Text)
	if err != nil {
		return mapIngestError(err)
	}

	docSvc := services.NewDocumentService(s.db.Client)
	doc, err := docSvc.CreateDocument(ctx, models.CreateDocumentRequest{
		OwnerID:  userID,
		Title:    extracted.Title,
		FullText: extracted.Text,
	})
	if err != nil {
		return mapServiceError(err)
	}

	// Any failure past this point marks the document failed so it never
	// reports ready with partial data.
	fail := func(cause error) error {
		if err := docSvc.SetStatus(ctx, doc.ID, entdocument.StatusFailed); err != nil {
			return mapServiceError(err)
		}
		return cause
	}

	if original != nil {
		blobPath, err := s.blobs.Put(ctx, doc.ID+"/"+filename, original, contentTypeFor(filename))
		if err != nil {
			return fail(echo.NewHTTPError(http.StatusBadGateway, "failed to store original file"))
		}
		if err := docSvc.SetBlobPath(ctx, doc.ID, blobPath); err != nil {
			return fail(mapServiceError(err))
		}
	}

	if _, err := services.NewChunkService(s.db.Client).CreateChunks(ctx, doc.ID, chunks); err != nil {
		return fail(mapServiceError(err))
	}
	if err := docSvc.UpdateMeta(ctx, doc.ID, models.DocumentMeta{
		ChunkCount: len(chunks),
		SourceURL:  sourceURL,
	}); err != nil {
		return fail(mapServiceError(err))
	}
	if err := docSvc.SetStatus(ctx, doc.ID, entdocument.StatusReady); err != nil {
		return fail(mapServiceError(err))
	}

	doc, err = docSvc.GetDocument(ctx, doc.ID)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusCreated, toDocumentResponse(doc))
}

// fileHandler serves GET /api/documents/:id/file, returning the original
// uploaded blob. Example documents are readable by anyone.
func (s *Server) fileHandler(c *echo.Context) error {
	documentID := c.Param("id")
	ctx := c.Request().Context()

	doc, err := services.NewDocumentService(s.db.Client).GetDocument(ctx, documentID)
	if err != nil {
		return mapServiceError(err)
	}

	if !s.cfg.IsExampleDocument(documentID) {
		userID, err := s.resolveBearer(c)
		if err != nil || userID == "" || doc.OwnerID == nil || *doc.OwnerID != userID {
			return echo.NewHTTPError(http.StatusForbidden, "not the document owner")
		}
	}

	if doc.BlobPath == nil || *doc.BlobPath == "" {
		return echo.NewHTTPError(http.StatusNotFound, "document has no stored file")
	}
	data, err := s.blobs.Get(ctx, *doc.BlobPath)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "failed to read stored file")
	}
	return c.Blob(http.StatusOK, contentTypeFor(*doc.BlobPath), data)
}

// deleteDocumentHandler serves DELETE /api/documents/:id. Chunks,
// conversations, messages, and questions cascade in the database; the
// original blob is removed afterwards.
func (s *Server) deleteDocumentHandler(c *echo.Context) error {
	documentID := c.Param("id")
	ctx := c.Request().Context()
	userID := currentUserID(c)

	docSvc := services.NewDocumentService(s.db.Client)
	doc, err := docSvc.GetDocument(ctx, documentID)
	if err != nil {
		return mapServiceError(err)
	}
	if doc.OwnerID == nil || *doc.OwnerID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "not the document owner")
	}

	blobPath, err := docSvc.DeleteDocument(ctx, documentID)
	if err != nil {
		return mapServiceError(err)
	}
	if blobPath != "" {
		if err := s.blobs.Delete(context.WithoutCancel(ctx), blobPath); err != nil {
			// The document row is gone; an orphaned blob is log-only.
			slog.Error("Failed to delete document blob", "path", blobPath, "error", err)
		}
	}
	return c.NoContent(http.StatusNoContent)
}

func contentTypeFor(name string) string {
	switch {
	case strings.HasSuffix(name, ".md"), strings.HasSuffix(name, ".markdown"):
		return "text/markdown"
	case strings.HasSuffix(name, ".txt"):
		return "text/plain"
	case strings.HasSuffix(name, ".pdf"):
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
