package service

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const classPerformanceSheet = "Class Performance"

var classPerformanceHeader = []interface{}{
	"Class ID", "Class", "Subject", "Class Code", "Students", "Average Score", "AI Sessions", "Assessments",
}

// ExportClassPerformance renders the class performance rows into an XLSX workbook.
func (s *teacherAnalyticsService) ExportClassPerformance(ctx context.Context, teacherID uint) ([]byte, error) {
	summaries := s.GetClassPerformance(ctx, teacherID)

	workbook := excelize.NewFile()
	defer func() {
		if err := workbook.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to close class performance workbook")
		}
	}()

	if err := workbook.SetSheetName("Sheet1", classPerformanceSheet); err != nil {
		return nil, fmt.Errorf("name worksheet: %w", err)
	}

	if err := workbook.SetSheetRow(classPerformanceSheet, "A1", &classPerformanceHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, summary := range summaries {
		subject := ""
		if summary.Subject != nil {
			subject = *summary.Subject
		}
		row := []interface{}{
			summary.ID,
			summary.Name,
			subject,
			summary.ClassCode,
			summary.StudentCount,
			summary.AvgScore,
			summary.TotalSessions,
			summary.TotalAssessments,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := workbook.SetSheetRow(classPerformanceSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write class %d: %w", summary.ID, err)
		}
	}

	buffer, err := workbook.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}

	s.logger.Info().Uint("teacher_id", teacherID).Int("classes", len(summaries)).Msg("class performance exported")
	return buffer.Bytes(), nil
}
