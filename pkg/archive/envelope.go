package archive

import (
	"bytes"
	"crypto/sha1" //nolint:gosec // non-cryptographic id generation
	"encoding/hex"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/Adda-Baaj/khobor-reader/internal/domain"
	"github.com/PuerkitoBio/goquery"
)

const mediaBaseURL = "https://www.nytimes.com/"

// Envelope is the archive success payload.
type Envelope struct {
	Status    string            `json:"status"`
	Copyright string            `json:"copyright"`
	Response  *EnvelopeResponse `json:"response"`
}

// EnvelopeResponse nests the documents. Docs is a pointer so absence is detectable, and
// each doc stays raw so one malformed record cannot fail the page.
type EnvelopeResponse struct {
	Docs *[]json.RawMessage `json:"docs"`
	Meta Meta               `json:"meta"`
}

// Meta mirrors the archive paging metadata.
type Meta struct {
	Hits   int   `json:"hits"`
	Offset int   `json:"offset"`
	Time   int64 `json:"time"`
}

// Doc is a single archive document, trimmed to the fields the reader uses.
type Doc struct {
	ID            string          `json:"_id"`
	URI           string          `json:"uri"`
	Abstract      string          `json:"abstract"`
	Snippet       string          `json:"snippet"`
	LeadParagraph string          `json:"lead_paragraph"`
	WebURL        string          `json:"web_url"`
	Source        string          `json:"source"`
	PubDate       string          `json:"pub_date"`
	SectionName   string          `json:"section_name"`
	WordCount     int             `json:"word_count"`
	Multimedia    json.RawMessage `json:"multimedia"`
	Headline      struct {
		Main          string `json:"main"`
		Kicker        string `json:"kicker"`
		PrintHeadline string `json:"print_headline"`
	} `json:"headline"`
	Byline struct {
		Original string `json:"original"`
	} `json:"byline"`
}

type rawMedia struct {
	URL     string `json:"url"`
	Type    string `json:"type"`
	Subtype string `json:"subtype"`
	Height  int    `json:"height"`
	Width   int    `json:"width"`
	Caption string `json:"caption"`
}

func decodeEnvelope(body []byte) (Envelope, error) {
	var env Envelope
	if len(bytes.TrimSpace(body)) == 0 {
		return env, &ProtocolError{Reason: "empty response body"}
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return env, &ProtocolError{Reason: "decode envelope", Err: err}
	}
	if env.Response == nil {
		return env, &ProtocolError{Reason: "missing response object"}
	}
	if env.Response.Docs == nil {
		return env, &ProtocolError{Reason: "missing response.docs"}
	}
	return env, nil
}

// EncodeEnvelope wraps docs in the archive envelope shape.
func EncodeEnvelope(docs []Doc, copyright string) ([]byte, error) {
	raws := make([]json.RawMessage, 0, len(docs))
	for _, doc := range docs {
		raw, err := json.Marshal(doc)
		if err != nil {
			return nil, err
		}
		raws = append(raws, raw)
	}
	env := Envelope{
		Status:    "OK",
		Copyright: copyright,
		Response: &EnvelopeResponse{
			Docs: &raws,
			Meta: Meta{Hits: len(docs), Time: time.Now().UnixMilli()},
		},
	}
	return json.Marshal(env)
}

// decodeDocs normalizes each raw doc on its own. Docs that do not decode are skipped
// and counted.
func decodeDocs(raws []json.RawMessage) ([]domain.Article, int) {
	articles := make([]domain.Article, 0, len(raws))
	skipped := 0
	for _, raw := range raws {
		var doc Doc
		if err := json.Unmarshal(raw, &doc); err != nil {
			skipped++
			continue
		}
		articles = append(articles, normalizeDoc(doc))
	}
	return articles, skipped
}

var pubDateLayouts = []string{
	"2006-01-02T15:04:05-0700",
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
}

func parsePubDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

func normalizeDoc(doc Doc) domain.Article {
	link := strings.TrimSpace(doc.WebURL)
	return domain.Article{
		ID:          docID(doc, link),
		Headline:    plainText(doc.Headline.Main),
		Summary:     plainText(doc.Abstract),
		Link:        link,
		PublishedAt: parsePubDate(doc.PubDate),
		Source:      strings.TrimSpace(doc.Source),
		Section:     strings.TrimSpace(doc.SectionName),
		Byline:      strings.TrimSpace(doc.Byline.Original),
		WordCount:   doc.WordCount,
		Multimedia:  decodeMedia(doc.Multimedia),
	}
}

func docID(doc Doc, link string) string {
	if id := strings.TrimSpace(doc.ID); id != "" {
		return id
	}
	if uri := strings.TrimSpace(doc.URI); uri != "" {
		return uri
	}
	if link != "" {
		return hashURL(link)
	}
	return ""
}

func hashURL(u string) string {
	sum := sha1.Sum([]byte(u))
	return hex.EncodeToString(sum[:])
}

// decodeMedia accepts the legacy array shape and the newer {"default": {...}} object shape.
func decodeMedia(raw json.RawMessage) []domain.Media {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	var list []rawMedia
	if err := json.Unmarshal(raw, &list); err != nil {
		var obj struct {
			Default *rawMedia `json:"default"`
			Caption string    `json:"caption"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil || obj.Default == nil {
			return nil
		}
		m := *obj.Default
		if m.Caption == "" {
			m.Caption = obj.Caption
		}
		if m.Type == "" {
			m.Type = "image"
		}
		list = []rawMedia{m}
	}

	out := make([]domain.Media, 0, len(list))
	for _, m := range list {
		u := resolveMediaURL(m.URL)
		if u == "" {
			continue
		}
		out = append(out, domain.Media{
			URL:     u,
			Type:    m.Type,
			Subtype: m.Subtype,
			Width:   m.Width,
			Height:  m.Height,
			Caption: strings.TrimSpace(m.Caption),
		})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func resolveMediaURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		return ref.String()
	}
	base, _ := url.Parse(mediaBaseURL)
	return base.ResolveReference(ref).String()
}

// plainText strips markup and collapses whitespace. Inputs without markup pass through.
func plainText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
