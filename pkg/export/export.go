// Package export writes assignments in the formats consumed downstream.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/kilianp07/cmapd/core/model"
)

// Format names an output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatHTML Format = "html"
)

// ParseFormat accepts json, csv and html, case-insensitively. An empty
// string selects json.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatCSV, FormatHTML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

// Write encodes a in the given format.
func Write(w io.Writer, f Format, a model.Assignment) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, a)
	case FormatCSV:
		return WriteCSV(w, a)
	case FormatHTML:
		return WriteHTML(w, a, "Robot routes")
	default:
		return fmt.Errorf("unknown output format %q", f)
	}
}

// WriteFile encodes a into path, or to stdout when path is "" or "-".
func WriteFile(path string, f Format, a model.Assignment) (err error) {
	if path == "" || path == "-" {
		return Write(os.Stdout, f, a)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	return Write(file, f, a)
}

// WriteJSON writes one array of {"row","col"} waypoints per robot. An empty
// assignment is written as [].
func WriteJSON(w io.Writer, a model.Assignment) error {
	if a == nil {
		a = model.Assignment{}
	}
	return json.NewEncoder(w).Encode(a)
}

// ReadJSON decodes an assignment written by WriteJSON.
func ReadJSON(r io.Reader) (model.Assignment, error) {
	var a model.Assignment
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("decode assignment: %w", err)
	}
	return a, nil
}

// WriteCSV writes one robot,step,row,col line per waypoint.
func WriteCSV(w io.Writer, a model.Assignment) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"robot", "step", "row", "col"}); err != nil {
		return err
	}
	for robot, route := range a {
		for step, c := range route {
			rec := []string{
				strconv.Itoa(robot),
				strconv.Itoa(step),
				strconv.Itoa(c.Row),
				strconv.Itoa(c.Col),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
