// Command importparks loads dog parks from a spreadsheet into the database.
//
// The first row of the sheet is a header naming the columns: name, address,
// latitude, longitude, and optionally borough, zipcode, description,
// amenities (semicolon separated), website and phone. Rows are upserted
// keyed on name and address, so the import can be re-run safely.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/HammerMeetNail/barkpark/internal/config"
	"github.com/HammerMeetNail/barkpark/internal/database"
	"github.com/HammerMeetNail/barkpark/internal/geo"
	"github.com/HammerMeetNail/barkpark/internal/logging"
	"github.com/HammerMeetNail/barkpark/internal/models"
	"github.com/HammerMeetNail/barkpark/internal/services"
)

var requiredColumns = []string{"name", "address", "latitude", "longitude"}

// rowError reports a spreadsheet row that could not be imported. Row is
// 1-based, matching what a spreadsheet shows.
type rowError struct {
	Row    int
	Reason string
}

func (e rowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

func main() {
	if err := run(); err != nil {
		logging.Error("Import failed", map[string]interface{}{"error": err.Error()})
		_ = logging.Default.Sync()
		os.Exit(1)
	}
}

func run() error {
	file := flag.String("file", "", "path to the .xlsx file to import")
	sheet := flag.String("sheet", "", "sheet name (defaults to the first sheet)")
	dryRun := flag.Bool("dry-run", false, "parse and validate without writing")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		return errors.New("-file is required")
	}

	logger := logging.New()
	defer func() { _ = logger.Sync() }()

	f, err := excelize.OpenFile(*file)
	if err != nil {
		return fmt.Errorf("opening %s: %w", *file, err)
	}
	defer func() { _ = f.Close() }()

	parks, rowErrs, err := readWorkbook(f, *sheet)
	if err != nil {
		return err
	}
	for _, re := range rowErrs {
		logger.Warn("Skipping row", map[string]interface{}{"row": re.Row, "reason": re.Reason})
	}
	logger.Info("Parsed parks", map[string]interface{}{
		"valid":   len(parks),
		"skipped": len(rowErrs),
	})

	if *dryRun || len(parks) == 0 {
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := database.NewPostgresDB(cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	parkService := services.NewParkService(services.NewPoolAdapter(db.Pool))
	result, err := parkService.ImportParks(ctx, parks)
	if err != nil {
		return fmt.Errorf("importing parks: %w", err)
	}

	logger.Info("Import complete", map[string]interface{}{
		"inserted": result.Inserted,
		"updated":  result.Updated,
	})
	return nil
}

// readWorkbook reads parks from the named sheet, or the first sheet when
// sheet is empty.
func readWorkbook(f *excelize.File, sheet string) ([]models.CreateParkParams, []rowError, error) {
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, nil, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	return parseRows(rows)
}

// parseRows converts sheet rows into park params. Rows that fail
// validation are reported and skipped; a bad header fails the whole sheet.
func parseRows(rows [][]string) ([]models.CreateParkParams, []rowError, error) {
	if len(rows) == 0 {
		return nil, nil, errors.New("sheet is empty")
	}

	columns := make(map[string]int)
	for i, h := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, nil, fmt.Errorf("missing required column %q", name)
		}
	}

	var (
		parks []models.CreateParkParams
		errs  []rowError
		seen  = make(map[string]int)
	)
	for i, row := range rows[1:] {
		rowNum := i + 2
		cell := func(name string) string {
			idx, ok := columns[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		if isBlank(row) {
			continue
		}

		p, err := parseRow(cell)
		if err != nil {
			errs = append(errs, rowError{Row: rowNum, Reason: err.Error()})
			continue
		}

		key := strings.ToLower(p.Name) + "|" + strings.ToLower(p.Address)
		if first, dup := seen[key]; dup {
			errs = append(errs, rowError{Row: rowNum, Reason: fmt.Sprintf("duplicate of row %d", first)})
			continue
		}
		seen[key] = rowNum
		parks = append(parks, p)
	}
	return parks, errs, nil
}

func parseRow(cell func(string) string) (models.CreateParkParams, error) {
	p := models.CreateParkParams{
		Name:        cell("name"),
		Address:     cell("address"),
		Borough:     optional(cell("borough")),
		Zipcode:     optional(cell("zipcode")),
		Description: optional(cell("description")),
		Website:     optional(cell("website")),
		Phone:       optional(cell("phone")),
		Amenities:   splitAmenities(cell("amenities")),
	}
	if p.Name == "" || p.Address == "" {
		return p, errors.New("name and address are required")
	}

	lat, err := strconv.ParseFloat(cell("latitude"), 64)
	if err != nil {
		return p, fmt.Errorf("latitude %q is not a number", cell("latitude"))
	}
	lng, err := strconv.ParseFloat(cell("longitude"), 64)
	if err != nil {
		return p, fmt.Errorf("longitude %q is not a number", cell("longitude"))
	}
	if !(geo.Point{Latitude: lat, Longitude: lng}).Valid() {
		return p, fmt.Errorf("coordinates (%v, %v) are out of range", lat, lng)
	}
	p.Latitude, p.Longitude = lat, lng
	return p, nil
}

func splitAmenities(s string) []string {
	amenities := []string{}
	for _, a := range strings.Split(s, ";") {
		if a = strings.TrimSpace(a); a != "" {
			amenities = append(amenities, a)
		}
	}
	return amenities
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
