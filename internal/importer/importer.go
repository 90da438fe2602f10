// Package importer reads item and container manifests from CSV and Excel
// files. Headers are matched exactly as the upstream tooling emits them —
// including the container file's literal "Height(height)" column, which is
// wrong but load-bearing.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/orbitlogix/stowage/internal/model"
)

// Item CSV columns, in order.
var itemHeaders = []string{
	"Item ID",
	"Name",
	"Width (cm)",
	"Depth (cm)",
	"Height (cm)",
	"Mass (kg)",
	"Priority (1-100)",
	"Expiry Date (ISO Format)",
	"Usage Limit",
	"Preferred Zone",
}

// Container CSV columns, in order. The last header is reproduced verbatim
// from the upstream contract.
var containerHeaders = []string{
	"Container ID",
	"Zone",
	"Width(cm)",
	"Depth(cm)",
	"Height(height)",
}

// RowError reports one rejected row. Row numbers are 1-based and count the
// header row; Row 0 marks an error that concerns the whole file.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ItemResult is the outcome of an item import. Rows that fail to parse are
// reported and skipped; the rest of the file still imports.
type ItemResult struct {
	Items  []model.Item `json:"-"`
	Errors []RowError   `json:"errors"`
}

// ContainerResult is the outcome of a container import.
type ContainerResult struct {
	Containers []model.Container `json:"-"`
	Errors     []RowError        `json:"errors"`
}

// readCSV parses r into rows, tolerating ragged records.
func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	return reader.ReadAll()
}

// checkHeader verifies the first row matches the expected column names
// exactly, ignoring surrounding whitespace.
func checkHeader(row, want []string) error {
	if len(row) < len(want) {
		return fmt.Errorf("expected %d columns, got %d", len(want), len(row))
	}
	for i, name := range want {
		if strings.TrimSpace(row[i]) != name {
			return fmt.Errorf("column %d: expected %q, got %q", i+1, name, strings.TrimSpace(row[i]))
		}
	}
	return nil
}

func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ImportItems reads an item manifest in the exact upstream CSV format.
func ImportItems(r io.Reader) ItemResult {
	rows, err := readCSV(r)
	if err != nil {
		return ItemResult{Errors: []RowError{{Row: 0, Message: fmt.Sprintf("cannot read CSV: %v", err)}}}
	}
	return itemsFromRows(rows)
}

// ImportItemsExcel reads an item manifest from the first sheet of an Excel
// workbook, same columns as the CSV form.
func ImportItemsExcel(path string) ItemResult {
	rows, err := excelRows(path)
	if err != nil {
		return ItemResult{Errors: []RowError{{Row: 0, Message: err.Error()}}}
	}
	return itemsFromRows(rows)
}

func itemsFromRows(rows [][]string) ItemResult {
	var result ItemResult
	if len(rows) == 0 {
		result.Errors = append(result.Errors, RowError{Row: 0, Message: "file is empty"})
		return result
	}
	if err := checkHeader(rows[0], itemHeaders); err != nil {
		result.Errors = append(result.Errors, RowError{Row: 1, Message: err.Error()})
		return result
	}

	for i := 1; i < len(rows); i++ {
		if isEmptyRow(rows[i]) {
			continue
		}
		item, err := parseItemRow(rows[i])
		if err != nil {
			result.Errors = append(result.Errors, RowError{Row: i + 1, Message: err.Error()})
			continue
		}
		result.Items = append(result.Items, item)
	}
	return result
}

func parseItemRow(row []string) (model.Item, error) {
	id := getCell(row, 0)
	if id == "" {
		return model.Item{}, fmt.Errorf("missing Item ID")
	}
	name := getCell(row, 1)
	if name == "" {
		return model.Item{}, fmt.Errorf("missing Name")
	}

	width, err := parsePositive("Width (cm)", getCell(row, 2))
	if err != nil {
		return model.Item{}, err
	}
	depth, err := parsePositive("Depth (cm)", getCell(row, 3))
	if err != nil {
		return model.Item{}, err
	}
	height, err := parsePositive("Height (cm)", getCell(row, 4))
	if err != nil {
		return model.Item{}, err
	}
	mass, err := parsePositive("Mass (kg)", getCell(row, 5))
	if err != nil {
		return model.Item{}, err
	}

	prioStr := getCell(row, 6)
	prio, err := strconv.Atoi(prioStr)
	if err != nil {
		return model.Item{}, fmt.Errorf("invalid Priority %q", prioStr)
	}
	if prio < 1 || prio > 100 {
		return model.Item{}, fmt.Errorf("Priority %d outside 1-100", prio)
	}

	item := model.Item{
		ItemID:        id,
		Name:          name,
		Width:         width,
		Depth:         depth,
		Height:        height,
		Mass:          mass,
		Priority:      prio,
		PreferredZone: getCell(row, 9),
	}

	// Empty expiry and usage-limit cells mean unset.
	if expStr := getCell(row, 7); expStr != "" {
		exp, err := model.ParseDate(expStr)
		if err != nil {
			return model.Item{}, fmt.Errorf("invalid Expiry Date %q", expStr)
		}
		item.ExpiryDate = exp
	}
	if limStr := getCell(row, 8); limStr != "" {
		lim, err := strconv.Atoi(limStr)
		if err != nil || lim <= 0 {
			return model.Item{}, fmt.Errorf("invalid Usage Limit %q", limStr)
		}
		item.UsageLimit = model.IntPtr(lim)
		item.RemainingUses = model.IntPtr(lim)
	}

	return item, nil
}

// ImportContainers reads a container manifest in the exact upstream CSV
// format.
func ImportContainers(r io.Reader) ContainerResult {
	rows, err := readCSV(r)
	if err != nil {
		return ContainerResult{Errors: []RowError{{Row: 0, Message: fmt.Sprintf("cannot read CSV: %v", err)}}}
	}
	return containersFromRows(rows)
}

// ImportContainersExcel reads a container manifest from the first sheet of
// an Excel workbook.
func ImportContainersExcel(path string) ContainerResult {
	rows, err := excelRows(path)
	if err != nil {
		return ContainerResult{Errors: []RowError{{Row: 0, Message: err.Error()}}}
	}
	return containersFromRows(rows)
}

func containersFromRows(rows [][]string) ContainerResult {
	var result ContainerResult
	if len(rows) == 0 {
		result.Errors = append(result.Errors, RowError{Row: 0, Message: "file is empty"})
		return result
	}
	if err := checkHeader(rows[0], containerHeaders); err != nil {
		result.Errors = append(result.Errors, RowError{Row: 1, Message: err.Error()})
		return result
	}

	for i := 1; i < len(rows); i++ {
		if isEmptyRow(rows[i]) {
			continue
		}
		c, err := parseContainerRow(rows[i])
		if err != nil {
			result.Errors = append(result.Errors, RowError{Row: i + 1, Message: err.Error()})
			continue
		}
		result.Containers = append(result.Containers, c)
	}
	return result
}

func parseContainerRow(row []string) (model.Container, error) {
	id := getCell(row, 0)
	if id == "" {
		return model.Container{}, fmt.Errorf("missing Container ID")
	}
	zone := getCell(row, 1)
	if zone == "" {
		return model.Container{}, fmt.Errorf("missing Zone")
	}

	width, err := parsePositive("Width(cm)", getCell(row, 2))
	if err != nil {
		return model.Container{}, err
	}
	depth, err := parsePositive("Depth(cm)", getCell(row, 3))
	if err != nil {
		return model.Container{}, err
	}
	height, err := parsePositive("Height(height)", getCell(row, 4))
	if err != nil {
		return model.Container{}, err
	}

	return model.Container{
		ContainerID: id,
		Zone:        zone,
		Width:       width,
		Depth:       depth,
		Height:      height,
	}, nil
}

func parsePositive(column, s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("missing %s", column)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", column, s)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %v", column, v)
	}
	return v, nil
}

// excelRows reads the first sheet of a workbook as string rows.
func excelRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open Excel file: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("Excel file has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("cannot read Excel data: %v", err)
	}
	return rows, nil
}
