package controllerImp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/labstack/echo/v4"

	"github.com/advisorpages/trainingBuilder-sub002/pkg/apierr"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/kb/service"
)

const defaultTopK = 6

type Options struct {
	AllowedDomains []string
	MaxBytes       int
	TopK           int
}

type KBCtrl struct {
	s        service.KBService
	allow    map[string]bool
	maxBytes int
	topK     int
	httpc    *http.Client
}

type ingestReq struct {
	Title     string `json:"title"`
	Tags      string `json:"tags"`
	Category  string `json:"category"`
	Text      string `json:"text"`
	SourceURL string `json:"sourceUrl"`
}

type ingestURLReq struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Tags     string `json:"tags"`
	Category string `json:"category"`
}

func New(s service.KBService, opts Options) *KBCtrl {
	allow := map[string]bool{}
	for _, h := range opts.AllowedDomains {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			allow[h] = true
		}
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 1500000
	}
	if opts.TopK <= 0 {
		opts.TopK = defaultTopK
	}
	return &KBCtrl{s: s, allow: allow, maxBytes: opts.MaxBytes, topK: opts.TopK, httpc: &http.Client{Timeout: 20 * time.Second}}
}

func (h *KBCtrl) IngestText(c echo.Context) error {
	var req ingestReq
	if err := c.Bind(&req); err != nil {
		return apierr.BadRequest("invalid_json", err)
	}
	if strings.TrimSpace(req.Title) == "" {
		return apierr.Unprocessable("title", errors.New("title is required"))
	}
	if strings.TrimSpace(req.Text) == "" {
		return apierr.Unprocessable("text", errors.New("text is required"))
	}
	doc, chunks, err := h.s.UpsertDocument(c.Request().Context(), service.DocumentInput{
		Title: req.Title, Tags: req.Tags, Category: req.Category, Text: req.Text, SourceURL: req.SourceURL,
	})
	if err != nil {
		return apierr.Unprocessable("text", err)
	}
	return c.JSON(http.StatusCreated, map[string]any{"doc": doc, "chunks": chunks})
}

func (h *KBCtrl) IngestURL(c echo.Context) error {
	var req ingestURLReq
	if err := c.Bind(&req); err != nil || req.URL == "" {
		return apierr.Unprocessable("url", errors.New("url required"))
	}
	u, err := url.Parse(req.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return apierr.Unprocessable("url", errors.New("bad url"))
	}
	if !h.allow[strings.ToLower(u.Hostname())] {
		return apierr.New(http.StatusForbidden, "domain_not_allowed", fmt.Errorf("domain %s not allowed", u.Hostname()))
	}

	txt, title, err := h.fetchMainText(c.Request().Context(), req.URL)
	if err != nil {
		return apierr.New(http.StatusBadGateway, "fetch_failed", err)
	}
	if req.Title != "" {
		title = req.Title
	}
	doc, n, err := h.s.UpsertDocument(c.Request().Context(), service.DocumentInput{
		Title: title, Tags: req.Tags, Category: req.Category, Text: txt, SourceURL: req.URL,
	})
	if err != nil {
		return apierr.Unprocessable("url", err)
	}
	return c.JSON(http.StatusCreated, map[string]any{"doc": doc, "chunks": n})
}

type outChunk struct {
	ChunkID   uint    `json:"chunkId"`
	DocID     uint    `json:"docId"`
	Ord       int     `json:"ord"`
	Text      string  `json:"text"`
	Score     float64 `json:"score"`
	DocTitle  string  `json:"docTitle,omitempty"`
	SourceURL string  `json:"sourceUrl,omitempty"`
}

func (h *KBCtrl) Search(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return apierr.Unprocessable("q", errors.New("q required"))
	}
	k := h.topK
	if v, err := strconv.Atoi(c.QueryParam("k")); err == nil && v > 0 && v <= 50 {
		k = v
	}
	hits, err := h.s.Search(c.Request().Context(), q, k)
	if err != nil {
		return err
	}
	out := make([]outChunk, 0, len(hits))
	for _, hit := range hits {
		out = append(out, outChunk{
			ChunkID: hit.Chunk.ChunkID, DocID: hit.Chunk.DocID, Ord: hit.Chunk.Ord, Text: hit.Chunk.Text,
			Score: hit.Score, DocTitle: hit.Doc.Title, SourceURL: hit.Doc.SourceURL,
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (h *KBCtrl) ListDocs(c echo.Context) error {
	docs, err := h.s.ListDocs(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"docs": docs})
}

// --- helpers ---

func (h *KBCtrl) fetchMainText(ctx context.Context, u string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", "", err
	}
	resp, err := h.httpc.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return "", "", fmt.Errorf("fetch: status %d", resp.StatusCode)
	}
	if resp.ContentLength > int64(h.maxBytes) {
		return "", "", fmt.Errorf("page too large")
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, int64(h.maxBytes)))
	if err != nil {
		return "", "", err
	}
	ct := strings.ToLower(resp.Header.Get("Content-Type"))
	switch {
	case strings.Contains(ct, "text/plain"):
		return string(b), guessTitleFromText(string(b)), nil
	case strings.Contains(ct, "text/html"):
		return extractHTML(b)
	}
	return "", "", fmt.Errorf("unsupported content-type: %s", ct)
}

// extractHTML keeps headings, paragraphs and list items from main/article,
// or from the whole page when neither exists.
func extractHTML(b []byte) (string, string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(b))
	if err != nil {
		return "", "", err
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())

	var parts []string
	sel := doc.Find("main, article")
	if sel.Length() == 0 {
		sel = doc.Selection
	}
	sel.Find("h1,h2,h3,p,li").Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return cleanWhitespace(strings.Join(parts, "\n")), title, nil
}

var wsRX = regexp.MustCompile(`\s+\n`)

func cleanWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	return wsRX.ReplaceAllString(s, "\n")
}

func guessTitleFromText(s string) string {
	line := strings.SplitN(strings.TrimSpace(s), "\n", 2)[0]
	if r := []rune(line); len(r) > 120 {
		line = string(r[:120])
	}
	return line
}
