package service

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Sammy-2432/PerformanceTestingEnhanced/model"
)

// firstPageChars approximates the page 1 region of a test plan. The OOXML
// text stream carries no page boundaries without rendering the layout, so
// the leading slice of the document stands in for the title page.
const firstPageChars = 2000

// Section labels the evaluator cares about
const (
	SectionInScope    = "3.3 In Scope"
	SectionMilestones = "12 Milestones"
)

var (
	tocPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)table\s+of\s+contents`),
		regexp.MustCompile(`(?i)\bcontents\b`),
	}

	sectionPatterns = map[string]*regexp.Regexp{
		SectionInScope:    regexp.MustCompile(`(?i)3\.3[:.\s]*in[\s-]*scope`),
		SectionMilestones: regexp.MustCompile(`(?i)\b12[:.\s]+milestones?\b`),
	}

	// A numbered top-level heading terminates the preceding section
	headingPattern = regexp.MustCompile(`\b\d{1,2}(?:\.\d+)*[:.\s]+[A-Z]`)
)

// AnalyzeDocx extracts the compliance-relevant content of a DOCX test plan.
// Malformed archives or parts return ErrExtraction; no partial document is
// produced.
func AnalyzeDocx(data []byte) (*model.ExtractedDocument, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a valid docx archive: %v", ErrExtraction, err)
	}

	docXML, err := readZipPart(archive, "word/document.xml")
	if err != nil {
		return nil, fmt.Errorf("%w: missing document body: %v", ErrExtraction, err)
	}

	rawText, err := extractTextRuns(docXML)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	fullText := normalizeText(rawText)

	footerText, err := extractFooterText(archive)
	if err != nil {
		return nil, err
	}

	firstPage := fullText
	if len(firstPage) > firstPageChars {
		firstPage = firstPage[:firstPageChars]
	}

	sections := extractSections(fullText)

	doc := &model.ExtractedDocument{
		Kind:              model.KindDocx,
		FullText:          fullText,
		FirstPageText:     firstPage,
		FooterText:        footerText,
		HasTOC:            hasTableOfContents(fullText),
		Sections:          sections,
		EmbeddedWorkbooks: extractEmbeddedWorkbooks(archive, "word/embeddings/"),
		MilestoneDates:    parseMilestoneDates(sections[SectionMilestones]),
		ContentHash:       contentHash(data),
	}

	return doc, nil
}

// extractFooterText concatenates the text of all footer parts in part order
func extractFooterText(archive *zip.Reader) (string, error) {
	var names []string
	for _, f := range archive.File {
		if strings.HasPrefix(f.Name, "word/footer") && strings.HasSuffix(f.Name, ".xml") {
			names = append(names, f.Name)
		}
	}
	sort.Strings(names)

	var parts []string
	for _, name := range names {
		data, err := readZipPart(archive, name)
		if err != nil {
			return "", fmt.Errorf("%w: unreadable footer part %s: %v", ErrExtraction, name, err)
		}
		text, err := extractTextRuns(data)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrExtraction, err)
		}
		if text = normalizeText(text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}

func hasTableOfContents(text string) bool {
	for _, p := range tocPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// extractSections locates the labeled sections and captures their body
// text up to the next numbered heading
func extractSections(text string) map[string]string {
	sections := make(map[string]string)
	for label, pattern := range sectionPatterns {
		loc := pattern.FindStringIndex(text)
		if loc == nil {
			continue
		}
		body := text[loc[1]:]
		if next := headingPattern.FindStringIndex(body); next != nil {
			body = body[:next[0]]
		}
		sections[label] = strings.TrimSpace(body)
	}
	return sections
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
