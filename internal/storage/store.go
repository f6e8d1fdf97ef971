// Package storage persists simulation runs as a directory per run holding
// metadata.json, states.csv and, when traced, attitude.csv.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/flatsim/internal/control"
	"github.com/san-kum/flatsim/internal/dynamo"
	"github.com/san-kum/flatsim/internal/flatness"
)

// ErrRunNotFound indicates an unknown run ID.
var ErrRunNotFound = errors.New("storage: run not found")

var (
	stateHeader    = []string{"time", "x", "y", "z", "w"}
	attitudeHeader = []string{"time", "phi", "theta", "psi", "p", "q", "r", "held"}
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Timestamp  time.Time          `json:"timestamp"`
	Field      []string           `json:"field"`
	Convention string             `json:"convention"`
	Mass       float64            `json:"mass"`
	Gravity    float64            `json:"gravity"`
	Inertia    [3][3]float64      `json:"inertia"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Integrator string             `json:"integrator"`
	Steps      int                `json:"steps"`
	Holds      int                `json:"holds"`
	Errors     []string           `json:"errors,omitempty"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Save writes a run and returns its ID. meta.ID, Timestamp, Steps and
// Metrics are filled in from the result.
func (s *Store) Save(meta RunMetadata, result *dynamo.Result, trace []control.Sample) (string, error) {
	now := time.Now()
	meta.ID = fmt.Sprintf("%s_%d", meta.Name, now.UnixNano())
	meta.Timestamp = now
	meta.Steps = result.StepsTaken
	meta.Metrics = result.Metrics
	for _, err := range result.Errors {
		meta.Errors = append(meta.Errors, err.Error())
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}
	if err := writeCSV(filepath.Join(runDir, "states.csv"), stateRows(result)); err != nil {
		return "", err
	}
	if len(trace) > 0 {
		if err := writeCSV(filepath.Join(runDir, "attitude.csv"), attitudeRows(trace)); err != nil {
			return "", err
		}
	}

	return meta.ID, nil
}

func stateRows(result *dynamo.Result) [][]string {
	header := append(append([]string{}, stateHeader...), flatness.InputFields...)
	rows := [][]string{header}
	for i, x := range result.States {
		row := []string{formatFloat(result.Times[i])}
		for j := 0; j < 4; j++ {
			v := 0.0
			if j < len(x) {
				v = x[j]
			}
			row = append(row, formatFloat(v))
		}
		for j := range flatness.InputFields {
			v := 0.0
			if i < len(result.Controls) && j < len(result.Controls[i]) {
				v = result.Controls[i][j]
			}
			row = append(row, formatFloat(v))
		}
		rows = append(rows, row)
	}
	return rows
}

func attitudeRows(trace []control.Sample) [][]string {
	rows := [][]string{attitudeHeader}
	for _, s := range trace {
		st := s.State
		rows = append(rows, []string{
			formatFloat(s.T),
			formatFloat(st.Phi), formatFloat(st.Theta), formatFloat(st.Psi),
			formatFloat(st.P), formatFloat(st.Q), formatFloat(st.R),
			strconv.FormatBool(s.Held),
		})
	}
	return rows
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 10, 64)
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Sync()
}

// List returns stored runs, oldest first. Directories without readable
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].Timestamp.Equal(runs[j].Timestamp) {
			return runs[i].Timestamp.Before(runs[j].Timestamp)
		}
		return runs[i].ID < runs[j].ID
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: %s metadata: %w", runID, err)
	}
	return &meta, nil
}

// Table is a numeric CSV: column names and rows.
type Table struct {
	Header []string    `json:"header"`
	Rows   [][]float64 `json:"rows"`
}

// Column returns the named column, nil if absent.
func (t *Table) Column(name string) []float64 {
	for j, h := range t.Header {
		if h != name {
			continue
		}
		col := make([]float64, len(t.Rows))
		for i, r := range t.Rows {
			if j < len(r) {
				col[i] = r[j]
			}
		}
		return col
	}
	return nil
}

// LoadStates reads states.csv: time, flat output and command per tick.
func (s *Store) LoadStates(runID string) (*Table, error) {
	return s.loadTable(runID, "states.csv")
}

// LoadAttitude reads attitude.csv. Held is stored as 1 or 0.
func (s *Store) LoadAttitude(runID string) (*Table, error) {
	return s.loadTable(runID, "attitude.csv")
}

func (s *Store) loadTable(runID, name string) (*Table, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s/%s", ErrRunNotFound, runID, name)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return &Table{}, nil
	}

	t := &Table{Header: records[0], Rows: make([][]float64, 0, len(records)-1)}
	for _, record := range records[1:] {
		row := make([]float64, len(record))
		for j, field := range record {
			switch field {
			case "true":
				row[j] = 1
			case "false":
				row[j] = 0
			default:
				v, err := strconv.ParseFloat(field, 64)
				if err != nil {
					return nil, fmt.Errorf("storage: %s/%s: %w", runID, name, err)
				}
				row[j] = v
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// ExportData is the JSON form of a stored run.
type ExportData struct {
	Meta     RunMetadata `json:"meta"`
	States   *Table      `json:"states"`
	Attitude *Table      `json:"attitude,omitempty"`
}

// ExportJSON writes a stored run as a single JSON document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	states, err := s.LoadStates(runID)
	if err != nil {
		return err
	}
	data := ExportData{Meta: *meta, States: states}
	if att, err := s.LoadAttitude(runID); err == nil {
		data.Attitude = att
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// ExportCSV copies states.csv of a run to w.
func (s *Store) ExportCSV(w io.Writer, runID string) error {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "states.csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return err
	}
	defer file.Close()

	_, err = io.Copy(w, file)
	return err
}
