package service

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/Sammy-2432/PerformanceTestingEnhanced/model"
	"github.com/xuri/excelize/v2"
)

// Date formats that appear in milestone tables
var milestoneDatePattern = regexp.MustCompile(`\b(\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|\d{4}-\d{2}-\d{2})\b`)

var milestoneDateLayouts = []string{
	"1/2/2006",
	"1/2/06",
	"1-2-2006",
	"1-2-06",
	"2006-01-02",
}

// extractTextRuns pulls the character data of OOXML text-run elements
// (w:t for WordprocessingML, a:t for DrawingML) out of a part, joined by
// single spaces in document order.
func extractTextRuns(xmlContent []byte) (string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(xmlContent))

	var runs []string
	depth := 0
	inRun := 0 // depth at which the current text run started, 0 = none

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("malformed part XML: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if t.Name.Local == "t" {
				inRun = depth
			}
		case xml.EndElement:
			if inRun == depth {
				inRun = 0
			}
			depth--
		case xml.CharData:
			if inRun != 0 {
				runs = append(runs, string(t))
			}
		}
	}

	return strings.Join(runs, " "), nil
}

// readZipPart reads one named part of an OOXML package
func readZipPart(archive *zip.Reader, name string) ([]byte, error) {
	for _, f := range archive.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("part %s not found", name)
}

// extractEmbeddedWorkbooks parses the spreadsheets embedded under prefix
// (word/embeddings/ or ppt/embeddings/). Embedded objects that are not
// readable xlsx still count as detected, with no sheet information.
func extractEmbeddedWorkbooks(archive *zip.Reader, prefix string) []model.EmbeddedWorkbook {
	var workbooks []model.EmbeddedWorkbook
	for _, f := range archive.File {
		if !strings.HasPrefix(f.Name, prefix) || f.FileInfo().IsDir() {
			continue
		}
		wb := model.EmbeddedWorkbook{Name: f.Name}
		if strings.HasSuffix(strings.ToLower(f.Name), ".xlsx") {
			if data, err := readZipPart(archive, f.Name); err == nil {
				wb.Sheets = readWorkbookSheets(data)
			}
		}
		workbooks = append(workbooks, wb)
	}
	return workbooks
}

// readWorkbookSheets lists the sheets of an xlsx payload with the header
// row of each sheet as its column names
func readWorkbookSheets(data []byte) []model.WorksheetInfo {
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	defer wb.Close()

	var sheets []model.WorksheetInfo
	for _, name := range wb.GetSheetList() {
		info := model.WorksheetInfo{Name: name}
		if rows, err := wb.GetRows(name); err == nil && len(rows) > 0 {
			for _, col := range rows[0] {
				col = strings.TrimSpace(col)
				if col != "" {
					info.Columns = append(info.Columns, col)
				}
			}
		}
		sheets = append(sheets, info)
	}
	return sheets
}

// parseMilestoneDates extracts the dates mentioned in a milestones section
func parseMilestoneDates(text string) []time.Time {
	var dates []time.Time
	seen := make(map[string]struct{})
	for _, raw := range milestoneDatePattern.FindAllString(text, -1) {
		if _, ok := seen[raw]; ok {
			continue
		}
		seen[raw] = struct{}{}
		for _, layout := range milestoneDateLayouts {
			if d, err := time.Parse(layout, raw); err == nil {
				dates = append(dates, d)
				break
			}
		}
	}
	return dates
}

// normalizeText collapses runs of whitespace to single spaces
func normalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
