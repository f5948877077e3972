package service

import (
	"archive/zip"
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Sammy-2432/PerformanceTestingEnhanced/model"
)

var (
	slidePartPattern = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

	milestoneSlidePattern = regexp.MustCompile(`(?i)milestone|implementation\s+schedule|timeline`)

	pltStatusPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)PLT\s+Status[:\s]*([A-Za-z][A-Za-z ]*)`),
		regexp.MustCompile(`(?i)Production\s+Live\s+Testing[:\s]*([A-Za-z][A-Za-z ]*)`),
	}
)

// AnalyzePptx extracts the compliance-relevant content of a PPTX test
// report. The first slide stands in for the page 1 region; milestones are
// collected from every slide mentioning a milestone or schedule.
func AnalyzePptx(data []byte) (*model.ExtractedDocument, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a valid pptx archive: %v", ErrExtraction, err)
	}

	slides, err := extractSlides(archive)
	if err != nil {
		return nil, err
	}
	if len(slides) == 0 {
		return nil, fmt.Errorf("%w: presentation has no slides", ErrExtraction)
	}

	fullText := normalizeText(strings.Join(slides, " "))

	var milestoneText []string
	for _, slide := range slides {
		if milestoneSlidePattern.MatchString(slide) {
			milestoneText = append(milestoneText, slide)
		}
	}

	sections := make(map[string]string)
	if len(milestoneText) > 0 {
		sections[SectionMilestones] = strings.TrimSpace(strings.Join(milestoneText, " "))
	}

	doc := &model.ExtractedDocument{
		Kind:              model.KindPptx,
		FullText:          fullText,
		FirstPageText:     normalizeText(slides[0]),
		Sections:          sections,
		EmbeddedWorkbooks: extractEmbeddedWorkbooks(archive, "ppt/embeddings/"),
		MilestoneDates:    parseMilestoneDates(sections[SectionMilestones]),
		SlideCount:        len(slides),
		PLTStatus:         extractPLTStatus(slides),
		ContentHash:       contentHash(data),
	}

	return doc, nil
}

// extractSlides returns the text of every slide in presentation order
func extractSlides(archive *zip.Reader) ([]string, error) {
	type slidePart struct {
		number int
		name   string
	}
	var parts []slidePart
	for _, f := range archive.File {
		m := slidePartPattern.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		parts = append(parts, slidePart{number: n, name: f.Name})
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].number < parts[j].number })

	slides := make([]string, 0, len(parts))
	for _, p := range parts {
		data, err := readZipPart(archive, p.name)
		if err != nil {
			return nil, fmt.Errorf("%w: unreadable slide %s: %v", ErrExtraction, p.name, err)
		}
		text, err := extractTextRuns(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
		}
		slides = append(slides, normalizeText(text))
	}
	return slides, nil
}

// extractPLTStatus returns the first PLT status value found on any slide
func extractPLTStatus(slides []string) string {
	for _, slide := range slides {
		for _, pattern := range pltStatusPatterns {
			if m := pattern.FindStringSubmatch(slide); m != nil {
				return strings.TrimSpace(m[1])
			}
		}
	}
	return ""
}
