package extract

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"google.golang.org/api/docs/v1"
	"google.golang.org/api/sheets/v4"
)

// googleAPI reads documents the authorized account can see.
type googleAPI struct {
	docs   *docs.Service
	sheets *sheets.Service
}

func (g *googleAPI) documentText(ctx context.Context, id string) (string, error) {
	doc, err := g.docs.Documents.Get(id).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	if doc.Body == nil {
		return "", nil
	}
	var b strings.Builder
	writeStructure(&b, doc.Body.Content)
	return strings.TrimSpace(b.String()), nil
}

func writeStructure(b *strings.Builder, content []*docs.StructuralElement) {
	for _, el := range content {
		switch {
		case el.Paragraph != nil:
			for _, pe := range el.Paragraph.Elements {
				if pe.TextRun != nil {
					b.WriteString(pe.TextRun.Content)
				}
			}
		case el.Table != nil:
			for _, row := range el.Table.TableRows {
				for _, cell := range row.TableCells {
					writeStructure(b, cell.Content)
				}
			}
		}
	}
}

// sheetCSV renders every tab of a spreadsheet as CSV, tabs separated by a blank line.
func (g *googleAPI) sheetCSV(ctx context.Context, id string) ([][]byte, error) {
	meta, err := g.sheets.Spreadsheets.Get(id).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	var tabs [][]byte
	for _, sheet := range meta.Sheets {
		if sheet.Properties == nil {
			continue
		}
		rng := "'" + strings.ReplaceAll(sheet.Properties.Title, "'", "''") + "'"
		values, err := g.sheets.Spreadsheets.Values.Get(id, rng).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("tab %q: %w", sheet.Properties.Title, err)
		}
		if len(values.Values) == 0 {
			continue
		}
		// The API drops trailing empty cells; CSV readers want equal widths.
		width := 0
		for _, row := range values.Values {
			width = max(width, len(row))
		}
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		for _, row := range values.Values {
			record := make([]string, width)
			for i, cell := range row {
				record[i] = fmt.Sprint(cell)
			}
			if err := w.Write(record); err != nil {
				return nil, err
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, err
		}
		tabs = append(tabs, buf.Bytes())
	}
	return tabs, nil
}
