// Package export writes candidate and engagement reports as Excel workbooks.
package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"cv-status/internal/status"
	"cv-status/internal/storage"
)

const (
	summarySheet    = "Summary"
	candidatesSheet = "Candidates"
	campaignsSheet  = "Campaigns"
	timeLayout      = "2006-01-02 15:04"
	campaignPage    = 500
)

// Report is everything a workbook shows.
type Report struct {
	Candidates   []*storage.Candidate
	Campaigns    []*storage.Campaign
	StatusCounts map[status.Status]int
	Stats        storage.CampaignStats
	GeneratedAt  time.Time
}

// Load reads the full report from the store.
func Load(ctx context.Context, db *storage.DB) (*Report, error) {
	cands, err := db.ListCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	var camps []*storage.Campaign
	for offset := 0; ; offset += campaignPage {
		page, err := db.ListCampaigns(ctx, storage.CampaignFilter{Limit: campaignPage, Offset: offset})
		if err != nil {
			return nil, fmt.Errorf("list campaigns: %w", err)
		}
		camps = append(camps, page...)
		if len(page) < campaignPage {
			break
		}
	}
	counts, err := db.CountCandidatesByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count statuses: %w", err)
	}
	stats, err := db.CampaignStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("campaign stats: %w", err)
	}
	return &Report{
		Candidates:   cands,
		Campaigns:    camps,
		StatusCounts: counts,
		Stats:        stats,
		GeneratedAt:  time.Now(),
	}, nil
}

// Write renders the workbook to w.
func Write(w io.Writer, r *Report) error {
	f, err := build(r)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// WriteFile saves the workbook, adding the .xlsx extension when missing. It returns the
// path actually written.
func WriteFile(outputPath string, r *Report) (string, error) {
	if !strings.HasSuffix(strings.ToLower(outputPath), ".xlsx") {
		outputPath += ".xlsx"
	}
	outputPath = filepath.Clean(outputPath)

	out, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", outputPath, err)
	}
	if err := Write(out, r); err != nil {
		out.Close()
		return "", err
	}
	return outputPath, out.Close()
}

func build(r *Report) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		f.Close()
		return nil, err
	}
	for _, name := range []string{candidatesSheet, campaignsSheet} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, err
	}

	steps := []struct {
		name string
		fn   func(*excelize.File, int, *Report) error
	}{
		{summarySheet, writeSummary},
		{candidatesSheet, writeCandidates},
		{campaignsSheet, writeCampaigns},
	}
	for _, s := range steps {
		if err := s.fn(f, headerStyle, r); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create %s sheet: %w", s.name, err)
		}
	}
	return f, nil
}

func writeSummary(f *excelize.File, headerStyle int, r *Report) error {
	_ = f.SetColWidth(summarySheet, "A", "A", 28)
	_ = f.SetColWidth(summarySheet, "B", "B", 20)

	rows := [][]any{
		{"Candidate status report", ""},
		{"Generated", r.GeneratedAt.Format(timeLayout)},
		{"Candidates", len(r.Candidates)},
		{},
		{"Status", "Count"},
	}
	for _, s := range status.All {
		rows = append(rows, []any{string(s), r.StatusCounts[s]})
	}
	rows = append(rows,
		[]any{},
		[]any{"Campaigns", "Count"},
		[]any{"Sent", r.Stats.Sent},
		[]any{"Opened", r.Stats.Opened},
		[]any{"Replied", r.Stats.Replied},
		[]any{"Bounced", r.Stats.Bounced},
		[]any{"Unsubscribed", r.Stats.Unsubscribed},
	)
	if err := setRows(f, summarySheet, rows); err != nil {
		return err
	}

	statusHeader := 5
	campaignHeader := statusHeader + len(status.All) + 2
	for _, row := range []int{1, statusHeader, campaignHeader} {
		if err := f.SetCellStyle(summarySheet, cell("A", row), cell("B", row), headerStyle); err != nil {
			return err
		}
	}
	return f.MergeCell(summarySheet, "A1", "B1")
}

var candidateHeaders = []any{
	"Name", "Email", "Status", "Current title", "Current company", "Location",
	"Years", "Skills", "Domains", "Source file", "Updated",
}

func writeCandidates(f *excelize.File, headerStyle int, r *Report) error {
	rows := [][]any{candidateHeaders}
	for _, c := range r.Candidates {
		var years any = ""
		if c.YearsExperience != nil {
			years = *c.YearsExperience
		}
		rows = append(rows, []any{
			c.Name, c.Email, string(c.Status), c.CurrentTitle, c.CurrentCompany, c.Location,
			years, strings.Join(c.Skills, ", "), strings.Join(c.Domains, ", "), c.SourceName,
			c.UpdatedAt.Format(timeLayout),
		})
	}
	if err := setRows(f, candidatesSheet, rows); err != nil {
		return err
	}
	_ = f.SetColWidth(candidatesSheet, "A", "B", 28)
	_ = f.SetColWidth(candidatesSheet, "C", "G", 16)
	_ = f.SetColWidth(candidatesSheet, "H", "I", 40)
	_ = f.SetColWidth(candidatesSheet, "J", "K", 20)
	return styleHeader(f, candidatesSheet, len(candidateHeaders), headerStyle)
}

var campaignHeaders = []any{
	"Candidate", "Email", "Subject", "Sent", "Opens", "First opened", "Replied", "Bounced", "Unsubscribed",
}

func writeCampaigns(f *excelize.File, headerStyle int, r *Report) error {
	byID := make(map[string]*storage.Candidate, len(r.Candidates))
	for _, c := range r.Candidates {
		byID[c.ID] = c
	}

	rows := [][]any{campaignHeaders}
	for _, camp := range r.Campaigns {
		name, email := "", ""
		if c := byID[camp.CandidateID]; c != nil {
			name, email = c.Name, c.Email
		}
		rows = append(rows, []any{
			name, email, camp.RenderedSubject, camp.SentAt.Format(timeLayout), camp.OpenCount,
			formatTime(camp.FirstOpenedAt), formatTime(camp.RepliedAt), formatTime(camp.BouncedAt),
			formatTime(camp.UnsubscribedAt),
		})
	}
	if err := setRows(f, campaignsSheet, rows); err != nil {
		return err
	}
	_ = f.SetColWidth(campaignsSheet, "A", "C", 30)
	_ = f.SetColWidth(campaignsSheet, "D", "I", 16)
	return styleHeader(f, campaignsSheet, len(campaignHeaders), headerStyle)
}

func setRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		if err := f.SetSheetRow(sheet, cell("A", i+1), &row); err != nil {
			return err
		}
	}
	return nil
}

func styleHeader(f *excelize.File, sheet string, cols, style int) error {
	last, err := excelize.CoordinatesToCellName(cols, 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, Split: false, XSplit: 0, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(timeLayout)
}
