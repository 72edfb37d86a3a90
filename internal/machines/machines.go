// Package machines reads and appends the flat-file record of launched instances.
//
// Each launch appends a blank separator line followed by one
// "<instance-id> <context>" line per instance. The file is never rewritten.
package machines

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultPath is the machines file location relative to the working directory.
const DefaultPath = "ec2man/machines"

// Record is one launched instance and the context tag it was launched under.
type Record struct {
	InstanceID string
	Context    string
}

// String formats the record as a machines file line, without newline.
func (r Record) String() string {
	return r.InstanceID + " " + r.Context
}

// Append writes a blank line and then one record per id to the file at path.
// The file is opened in append mode without locking; concurrent writers may
// interleave.
func Append(path string, ids []string, context string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create machines directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644) // #nosec G304 -- path comes from flags or config
	if err != nil {
		return fmt.Errorf("open machines file: %w", err)
	}

	var b strings.Builder
	b.WriteString("\n")
	for _, id := range ids {
		b.WriteString(Record{InstanceID: id, Context: context}.String())
		b.WriteString("\n")
	}

	if _, err := f.WriteString(b.String()); err != nil {
		_ = f.Close()
		return fmt.Errorf("write machines file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close machines file: %w", err)
	}
	return nil
}

// Read parses every non-blank line of the file at path.
// A line with a single token has an empty context; tokens after the id are
// joined with single spaces.
func Read(path string) ([]Record, error) {
	f, err := os.Open(path) // #nosec G304 -- path comes from flags or config
	if err != nil {
		return nil, fmt.Errorf("open machines file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var records []Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		records = append(records, Record{
			InstanceID: fields[0],
			Context:    strings.Join(fields[1:], " "),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read machines file: %w", err)
	}

	return records, nil
}

// ByContext groups instance ids by context tag, keeping file order.
func ByContext(records []Record) map[string][]string {
	groups := make(map[string][]string)
	for _, r := range records {
		groups[r.Context] = append(groups[r.Context], r.InstanceID)
	}
	return groups
}
