// CineShare - Movie Review Social Platform
// Copyright 2026 CineShare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cineshare/cineshare

package store

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/cineshare/cineshare/internal/models"
)

// CreateReport stores a review report. A user may report a given review
// at most once; a second attempt returns ErrConflict.
func (s *Store) CreateReport(ctx context.Context, report *models.Report) error {
	if report.ID == "" {
		report.ID = uuid.New().String()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = s.now().UTC()
	}
	if report.Status == "" {
		report.Status = models.ReportStatusOpen
	}

	dupKey := prefixReportIdx + report.ReviewID + ":" + report.ReporterID

	return s.update(func(txn *badger.Txn) error {
		already, err := exists(txn, dupKey)
		if err != nil {
			return err
		}
		if already {
			return ErrConflict
		}
		if err := setJSON(txn, prefixReport+report.ID, report); err != nil {
			return err
		}
		return txn.Set([]byte(dupKey), []byte(report.ID))
	})
}

// GetReport loads a report by ID.
func (s *Store) GetReport(ctx context.Context, id string) (*models.Report, error) {
	var report models.Report
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, prefixReport+id, &report)
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// ListReports returns all reports, optionally filtered by status.
func (s *Store) ListReports(ctx context.Context, status string) ([]*models.Report, error) {
	var reports []*models.Report
	err := s.scanPrefix(prefixReport, func(val []byte) error {
		var report models.Report
		if err := json.Unmarshal(val, &report); err != nil {
			return err
		}
		if status != "" && report.Status != status {
			return nil
		}
		reports = append(reports, &report)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reports, nil
}

// SetReportStatus transitions a report to resolved or dismissed.
func (s *Store) SetReportStatus(ctx context.Context, id, status string) error {
	return s.update(func(txn *badger.Txn) error {
		var report models.Report
		if err := getJSON(txn, prefixReport+id, &report); err != nil {
			return err
		}
		report.Status = status
		return setJSON(txn, prefixReport+id, &report)
	})
}
